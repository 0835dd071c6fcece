package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/slighter12/godot-agent-tools/config"
	"github.com/slighter12/godot-agent-tools/editpipe"
	"github.com/slighter12/godot-agent-tools/gdscript"
	"github.com/slighter12/godot-agent-tools/logger"
	"github.com/slighter12/godot-agent-tools/project"
	"github.com/slighter12/godot-agent-tools/scene"
	"github.com/slighter12/godot-agent-tools/tools"
	"github.com/slighter12/godot-agent-tools/tools/types"
	"github.com/slighter12/godot-agent-tools/trace"
	"github.com/slighter12/godot-agent-tools/transport/http"
	"github.com/slighter12/godot-agent-tools/transport/stdio"
)

func main() {
	// Local overrides first; a missing .env is not an error.
	_ = godotenv.Load()

	configPath, err := config.ResolveConfigPath()
	if err != nil {
		log.Fatalf("Failed to resolve config path: %+v", err)
	}
	if err := config.EnsureDefaultConfig(configPath); err != nil {
		log.Fatalf("Failed to ensure default config: %+v", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %+v", err)
	}

	if os.Getenv("GODOT_TOOLS_DEBUG") == "true" {
		cfg.Server.Debug = true
		log.Println("Debug mode enabled via GODOT_TOOLS_DEBUG environment variable")
	}

	if err := logger.Init(logger.GetLevelFromString(cfg.Logging.Level), logger.Format(cfg.Logging.Format), cfg.Logging.Path); err != nil {
		log.Fatalf("Failed to initialize logger: %+v", err)
	}

	env, cleanup, err := buildEnv(cfg)
	if err != nil {
		logger.Error("Failed to build tool environment", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	toolManager := tools.NewManager()
	toolManager.RegisterDefaultTools(env)

	if os.Getenv("GODOT_TOOLS_USE_STDIO") == "true" || !transportEnabled(cfg, "http") {
		server := stdio.NewStdioServer(toolManager)
		if err := server.Start(); err != nil {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
		return
	}

	server := http.NewServer(cfg, toolManager)
	if err := server.Start(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// buildEnv assembles the scene graph, project index and pipeline the
// tools execute against.
func buildEnv(cfg *config.Config) (*types.Env, func(), error) {
	projectRoot := cfg.Editor.ProjectRoot
	if projectRoot == "" {
		projectRoot = types.ResolveProjectRootFromEnvOrCWD()
	}
	logger.Info("Using project root", "path", projectRoot)

	tree := scene.NewTree()
	if cfg.Editor.DefaultScene != "" {
		diskPath, resPath, err := types.ResolveProjectFilePath(projectRoot, cfg.Editor.DefaultScene, []string{".tscn"})
		if err != nil {
			return nil, nil, err
		}
		if err := tree.LoadInto(resPath, diskPath); err != nil {
			logger.Warn("Default scene not loaded, starting empty", "scene", resPath, "error", err)
			tree.SetRoot(scene.Classes().Instantiate("Node2D", "Main"))
		}
	} else {
		tree.SetRoot(scene.Classes().Instantiate("Node2D", "Main"))
	}

	index, err := project.NewIndex(projectRoot, cfg.Editor.FileExtensions)
	if err != nil {
		return nil, nil, err
	}

	verifier := gdscript.NewVerifier()
	pipeline := editpipe.NewPipeline(
		editpipe.NewHTTPPredictor(cfg.Edit.PredictionEndpoint),
		verifier,
		editpipe.DiffOptions{
			ContextLines: cfg.Edit.ContextLines,
			MaxBytes:     cfg.Edit.MaxDiffBytes,
		},
	)

	env := &types.Env{
		Tree:     tree,
		Loader:   scene.NewFileResourceLoader(projectRoot),
		Pipeline: pipeline,
		Verifier: verifier,
		Traces: trace.NewManager(trace.Limits{
			DefaultMaxEvents: cfg.Trace.DefaultMaxEvents,
			MaxMaxEvents:     cfg.Trace.MaxMaxEvents,
			MaxSessions:      cfg.Trace.MaxSessions,
		}),
		Index:       index,
		ProjectRoot: projectRoot,
	}
	cleanup := func() {
		if err := index.Close(); err != nil {
			logger.Warn("Project index close failed", "error", err)
		}
	}
	return env, cleanup, nil
}

func transportEnabled(cfg *config.Config, transportType string) bool {
	for _, t := range cfg.Transports {
		if t.Type == transportType && t.Enabled {
			return true
		}
	}
	return false
}
