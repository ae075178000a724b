// Command indexer runs the indexing pipeline directly against local video
// files, bypassing the API and the queue. Useful for bulk backfills and
// local development.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"videorag/internal/app"
	"videorag/internal/util"
	"videorag/pkg/logger"
	"videorag/pkg/logger/console"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".mov":  true,
	".webm": true,
	".avi":  true,
}

func main() {
	path := flag.String("path", "", "video file or directory of videos to index")
	flag.Parse()

	util.LoadEnv()
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
	}))

	if *path == "" {
		logger.Fatal("Missing -path flag")
	}

	ctx := context.Background()
	resources, err := app.Load(ctx)
	if err != nil {
		logger.Fatal("Failed to load resources", "error", err)
	}
	defer resources.Close()

	videos, err := collectVideos(*path)
	if err != nil {
		logger.Fatal("Failed to collect videos", "error", err)
	}
	if len(videos) == 0 {
		logger.Fatal("No video files found", "path", *path)
	}

	var failures int
	for _, videoPath := range videos {
		videoID := util.VideoIDFromPath(videoPath)
		if err := resources.Pipeline.RunForVideo(ctx, "", videoID, videoPath); err != nil {
			logger.Error("Indexing failed", "video", videoID, "error", err)
			failures++
		}
	}

	logger.Info("Done", "indexed", len(videos)-failures, "failed", failures)
	if failures > 0 {
		os.Exit(1)
	}
}

func collectVideos(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var videos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if videoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			videos = append(videos, filepath.Join(path, entry.Name()))
		}
	}
	return videos, nil
}
