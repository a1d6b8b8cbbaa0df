package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"handsfree/internal/ipc"
)

const envPrefix = "HANDSFREE_"

type Config struct {
	EnvFile  string
	LogLevel string

	Listen     string
	SocketPath string

	DBPath string
	Seed   bool

	Matcher string // rules | llm
	Model   string
	Proxy   string
	APIKey  string

	Source        string // browser | mic | none
	Media         string // browser | local
	WhisperModel  string
	RecordingsDir string
	RestartDelay  time.Duration

	Speak    bool
	Lang     string
	BeepFile string
}

var (
	matchers = []string{"rules", "llm"}
	sources  = []string{"browser", "mic", "none"}
	medias   = []string{"browser", "local"}
)

func newFlagSet(name string, c *Config) *cli.FlagSet {
	fs := cli.NewFlagSet(name, cli.ContinueOnError)
	fs.StringVarP(&c.EnvFile, "env", "e", ".env", "Env file path")
	fs.StringVarP(&c.LogLevel, "log", "l", "info", "Log level")
	fs.StringVar(&c.Listen, "listen", ":8092", "HTTP and websocket listen address")
	fs.StringVar(&c.SocketPath, "socket", ipc.DefaultSocketPath, "Control socket path")
	fs.StringVar(&c.DBPath, "db", "", "SQLite database path, empty keeps everything in memory")
	fs.BoolVar(&c.Seed, "seed", true, "Seed demo contacts")
	fs.StringVarP(&c.Matcher, "matcher", "m", "rules", "Command matcher: rules or llm")
	fs.StringVar(&c.Model, "model", "", "LLM model for the llm matcher")
	fs.StringVarP(&c.Proxy, "proxy", "p", "", "SOCKS5 proxy address for the LLM API")
	fs.StringVarP(&c.Source, "source", "s", "browser", "Recognition source: browser, mic or none")
	fs.StringVar(&c.Media, "media", "browser", "Media executor: browser or local")
	fs.StringVar(&c.WhisperModel, "whisper-model", "models/ggml-base.en.bin", "Whisper model path")
	fs.StringVar(&c.RecordingsDir, "recordings", "recordings", "Directory for audio recordings")
	fs.DurationVar(&c.RestartDelay, "restart-delay", 300*time.Millisecond, "Delay before recognition restarts")
	fs.BoolVar(&c.Speak, "speak", false, "Speak status messages")
	fs.StringVar(&c.Lang, "lang", "en", "Voice language for spoken statuses")
	fs.StringVar(&c.BeepFile, "beep", "", "MP3 played when recording starts and stops")
	return fs
}

// Load parses args, loads the env file and applies HANDSFREE_* variables to
// every flag not given on the command line.
func Load(name string, args []string) (*Config, error) {
	c := &Config{}
	fs := newFlagSet(name, c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", c.EnvFile, err)
	}

	var setErr error
	fs.VisitAll(func(f *cli.Flag) {
		if f.Changed || setErr != nil {
			return
		}
		if v, ok := os.LookupEnv(EnvName(f.Name)); ok {
			if err := fs.Set(f.Name, v); err != nil {
				setErr = fmt.Errorf("%s: %w", EnvName(f.Name), err)
			}
		}
	})
	if setErr != nil {
		return nil, setErr
	}

	c.APIKey = os.Getenv("OPENAI_API_KEY")
	return c, c.Validate()
}

// EnvName is the environment variable that overrides flag name.
func EnvName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func (c *Config) Validate() error {
	if err := oneOf("matcher", c.Matcher, matchers); err != nil {
		return err
	}
	if err := oneOf("source", c.Source, sources); err != nil {
		return err
	}
	if err := oneOf("media", c.Media, medias); err != nil {
		return err
	}
	if c.Matcher == "llm" && c.APIKey == "" {
		return errors.New("OPENAI_API_KEY not set, required by the llm matcher")
	}
	if c.RestartDelay < 0 {
		return errors.New("restart-delay must not be negative")
	}
	return nil
}

func oneOf(name, v string, allowed []string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q, want one of %s", name, v, strings.Join(allowed, ", "))
}
