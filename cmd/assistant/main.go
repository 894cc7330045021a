// In file: cmd/assistant/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"

	"github.com/dileep-u-k/weather-assistant/internal/agent"
	"github.com/dileep-u-k/weather-assistant/internal/stats"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
	"github.com/dileep-u-k/weather-assistant/internal/weather"
)

// CLI is the command-line surface. Every command shares the same
// composition root.
type CLI struct {
	Config string `help:"Optional YAML file with extractor rules and agent settings." env:"CONFIG_FILE" default:"config.yaml"`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Run the HTTP server (default)."`
	Ask     AskCmd     `cmd:"" help:"Answer one question the way POST /chat would."`
	Weather WeatherCmd `cmd:"" help:"Print the weather report for a city."`
	Version VersionCmd `cmd:"" help:"Print build information."`
}

// Globals is bound into every command's Run method.
type Globals struct {
	ConfigPath string
	Out        io.Writer
}

type ServeCmd struct {
	Port string `help:"Listen port; overrides PORT."`
}

func (cmd *ServeCmd) Run(g *Globals) error {
	app, err := newApp(context.Background(), g.ConfigPath)
	if err != nil {
		return err
	}
	defer app.Close()

	port := app.cfg.Port
	if cmd.Port != "" {
		port = cmd.Port
	}
	printBanner(app, port)

	gin.SetMode(os.Getenv("GIN_MODE"))
	srv := &http.Server{Addr: ":" + port, Handler: newRouter(app.handler)}
	return runServerWithGracefulShutdown(srv)
}

type AskCmd struct {
	Text []string `arg:"" help:"The question, e.g. \"what's the weather in Tokyo?\""`
}

func (cmd *AskCmd) Run(g *Globals) error {
	app, err := newApp(context.Background(), g.ConfigPath)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Fprintln(g.Out, app.handler.Respond(context.Background(), strings.Join(cmd.Text, " ")))
	return nil
}

type WeatherCmd struct {
	City []string `arg:"" optional:"" help:"City name (default London)."`
}

func (cmd *WeatherCmd) Run(g *Globals) error {
	cfg, err := LoadConfig(g.ConfigPath)
	if err != nil {
		return err
	}
	city := strings.Join(cmd.City, " ")
	if city == "" {
		city = defaultTestCity
	}
	client := weather.NewClient(cfg.WeatherAPIKey, weather.WithBaseURL(cfg.WeatherBaseURL))
	fmt.Fprintln(g.Out, client.Report(context.Background(), city))
	return nil
}

type VersionCmd struct{}

func (cmd *VersionCmd) Run(g *Globals) error {
	fmt.Fprintln(g.Out, GetBuildInfo())
	return nil
}

// main is the composition root: it parses flags, loads configuration,
// builds services and hands them to the selected command.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("weather-assistant"),
		kong.Description("Chat-style weather assistant with an optional LLM agent."),
		kong.UsageOnError(),
	)
	err := kctx.Run(&Globals{ConfigPath: cli.Config, Out: os.Stdout})
	kctx.FatalIfErrorf(err)
}

// App holds the services built at startup. Nothing in it is mutated after newApp returns.
type App struct {
	cfg      *AppConfig
	weather  *weather.Client
	agent    *agent.Agent
	recorder stats.Recorder
	handler  *ChatHandler
	closers  []io.Closer
}

func newApp(ctx context.Context, configPath string) (*App, error) {
	log.Printf("🚀 Starting %s", GetBuildInfo())

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	log.Println("✅ Configuration loaded.")

	rules, err := weather.CompileRules(cfg.Extractor)
	if err != nil {
		return nil, fmt.Errorf("extractor configuration error: %w", err)
	}

	app := &App{cfg: cfg, recorder: stats.Nop{}}
	app.weather = weather.NewClient(cfg.WeatherAPIKey, weather.WithBaseURL(cfg.WeatherBaseURL))
	extractor := weather.NewExtractor(app.weather, rules)

	if cfg.RedisAddr != "" {
		rec, err := stats.NewRedisRecorder(ctx, cfg.RedisAddr)
		if err != nil {
			log.Printf("WARNING: Stats disabled: %v", err)
		} else {
			app.recorder = rec
			app.closers = append(app.closers, rec)
			log.Printf("✅ Stats recorder connected to Redis at %s", cfg.RedisAddr)
		}
	}

	toolManager := tools.NewToolManager()
	toolManager.Register(tools.NewWeatherTool(app.weather))

	log.Println("🔄 Initializing agent with the weather tool...")
	a, err := agent.Build(ctx, cfg.Agent, toolManager)
	if err != nil {
		log.Printf("❌ Agent initialization failed: %v (falling back to city extraction)", err)
	} else {
		app.agent = a
		app.closers = append(app.closers, a)
		log.Println("✅ Agent initialized successfully!")
	}

	// A nil *agent.Agent must not become a non-nil interface value.
	var chatAgent ChatAgent
	if app.agent != nil {
		chatAgent = app.agent
	}
	app.handler = NewChatHandler(chatAgent, extractor, app.weather, app.recorder)
	log.Println("✅ All services initialized.")
	return app, nil
}

// Close releases connections opened by newApp.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Printf("WARNING: close failed: %v", err)
		}
	}
}

func status(ok bool) string {
	if ok {
		return "✅ Configured"
	}
	return "❌ Missing"
}

func printBanner(app *App, port string) {
	line := strings.Repeat("=", 50)
	log.Println(line)
	log.Println("🌍 WEATHER ASSISTANT BACKEND")
	log.Println(line)
	log.Printf("Agent (%s): %s", app.cfg.Agent.Provider, status(agent.UsableKey(app.cfg.Agent.APIKey)))
	log.Printf("WeatherAPI: %s", status(app.weather.Configured()))
	log.Printf("Agent active: %v", app.agent != nil)
	log.Printf("Server: http://localhost:%s", port)
	log.Println(line)
	log.Println("Test endpoints:")
	for i, city := range []string{"London", "Tokyo", "Paris", "Dubai"} {
		log.Printf("%d. /test/%s", i+1, city)
	}
	log.Println(line)
}
