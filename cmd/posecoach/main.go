package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ayusman/posecoach/internal/app"
	"github.com/ayusman/posecoach/internal/capture"
	"github.com/ayusman/posecoach/internal/config"
	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/profile"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/server"
	"github.com/ayusman/posecoach/internal/store"
	"github.com/ayusman/posecoach/internal/tray"
)

// lastPoseKey is the setting remembering the pose chosen in the tray.
const lastPoseKey = "tray.last_pose"

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.posecoach/config.yaml)")
	withTray := flag.Bool("tray", false, "practice with the local camera from the system tray")
	poseID := flag.String("pose", "", "pose to practice in tray mode")
	flag.Usage = usage
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	if _, err := st.Seed(); err != nil {
		log.Fatalf("Failed to seed pose library: %v", err)
	}

	switch cmd := flag.Arg(0); cmd {
	case "":
	case "import":
		if flag.NArg() != 2 {
			usage()
			os.Exit(2)
		}
		if err := importLibrary(st, flag.Arg(1)); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		return
	case "export":
		if err := exportLibrary(st, flag.Arg(1)); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if cfg.ProfilesFile != "" {
		if err := importLibrary(st, cfg.ProfilesFile); err != nil {
			log.Fatalf("Failed to import %s: %v", cfg.ProfilesFile, err)
		}
	}

	reg, err := st.LoadRegistry()
	if err != nil {
		log.Fatalf("Failed to load pose library: %v", err)
	}
	engine, err := scoring.NewEngine(reg, cfg.Scoring)
	if err != nil {
		log.Fatalf("Failed to create scoring engine: %v", err)
	}

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		fmt.Printf("Serving static files from: %s\n", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Engine:    engine,
		Store:     st,
	})

	fmt.Println("PoseCoach - Pose Practice")
	fmt.Printf("Starting server on %s with %d poses\n", cfg.Server.Addr, reg.Len())

	if !*withTray {
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	go func() {
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	runTray(cfg, st, srv, *poseID)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: posecoach [flags] [import <file> | export [file]]\n\n")
	flag.PrintDefaults()
}

func loadConfig(path string) (*config.Config, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return config.Load(path, dataDir)
}

// importLibrary merges a YAML pose library into the store.
func importLibrary(st *store.Store, path string) error {
	profiles, aliases, err := profile.ParseFile(path)
	if err != nil {
		return err
	}
	if err := st.Import(profiles, aliases); err != nil {
		return err
	}
	log.Printf("Imported %d poses from %s", len(profiles), path)
	return nil
}

// exportLibrary writes the stored pose library as YAML to path, or stdout when
// path is empty.
func exportLibrary(st *store.Store, path string) error {
	profiles, err := st.Poses().List()
	if err != nil {
		return err
	}
	aliases, err := st.Aliases().All()
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return profile.Write(w, profiles, aliases)
}

// runTray practices from the local camera until the tray is quit.
func runTray(cfg *config.Config, st *store.Store, srv *server.Server, poseID string) {
	if poseID == "" {
		if last, err := st.Settings().Get(lastPoseKey); err == nil {
			poseID = last
		} else if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Failed to read last pose: %v", err)
		}
	}

	reg := srv.Engine().Registry()
	items := make([]tray.PoseItem, 0, reg.Len())
	for _, p := range reg.List() {
		items = append(items, tray.PoseItem{ID: p.ID, Name: p.Name})
	}
	if poseID == "" && len(items) > 0 {
		poseID = items[0].ID
	}

	var det detector.Detector
	if mp, err := detector.NewMediaPipeDetector(cfg.Detector); err == nil {
		det = mp
		log.Println("Using MediaPipe pose detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		det = detector.NewMockDetector()
	}

	cam := capture.NewCamera(capture.Options{
		DeviceID: cfg.Camera.DeviceID,
		Width:    cfg.Camera.Width,
		Height:   cfg.Camera.Height,
		FPS:      cfg.Camera.FPS,
	})
	a := app.New(app.Config{
		Camera: capture.Options{FPS: cfg.Camera.FPS},
		PoseID: poseID,
	}, srv.Engine, cam, det)

	if err := a.SetPose(poseID); err != nil {
		log.Printf("Failed to select pose: %v", err)
	}

	t := tray.New(items, a.PoseID())
	a.OnResult(func(r app.Result) { t.SetOutcome(r.Outcome) })
	t.OnToggle(a.SetEnabled)
	t.OnPose(func(id string) {
		if err := a.SetPose(id); err != nil {
			log.Printf("Failed to select pose: %v", err)
			return
		}
		if err := st.Settings().Set(lastPoseKey, a.PoseID()); err != nil {
			log.Printf("Failed to remember pose: %v", err)
		}
	})
	t.OnSettings(func() { openBrowser(localURL(cfg.Server.Addr)) })
	t.OnQuit(a.Stop)

	if err := a.Start(); err != nil {
		log.Printf("Failed to start camera: %v", err)
	}
	t.Run()
}

func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open %s: %v", url, err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.posecoach/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
