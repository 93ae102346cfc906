package classifymessage

import (
	"time"

	"github.com/josephinoo/agent-bg/internal/conversation/lexicon"
)

type Config struct {
	MatchMode lexicon.MatchMode
	Timeout   time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		MatchMode: lexicon.MatchWholeWord,
		Timeout:   5 * time.Second,
	}
}
