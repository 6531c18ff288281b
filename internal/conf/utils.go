// conf/utils.go various util functions for configuration package
package conf

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pcbvision/aoi-go/internal/errors"
)

// OS name constants for runtime.GOOS comparisons.
const (
	osLinux   = "linux"
	osWindows = "windows"
)

// GetDefaultConfigPaths returns a list of default configuration paths for the current operating system.
// It determines paths based on standard conventions for storing application configuration files.
// If a config.yaml file is found in any of the paths, it returns that path as the default.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	// Fetch the directory of the executable.
	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	// Fetch the user's home directory.
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	// Define default paths based on the operating system.
	switch runtime.GOOS {
	case osWindows:
		// For Windows, use the executable directory and the AppData Roaming directory.
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "aoi-go"),
		}
	default:
		// For Linux and macOS, use a hidden directory in the home directory and a system-wide configuration directory.
		configPaths = []string{
			filepath.Join(homeDir, ".config", "aoi-go"),
			"/etc/aoi-go",
		}
	}

	// Check if config.yaml exists in any of the paths
	for _, path := range configPaths {
		configFile := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFile); err == nil {
			// Config file found, return this path as the only default path
			return []string{path}, nil
		}
	}

	// If no config.yaml is found, return all paths
	return configPaths, nil
}

// FindConfigFile locates the configuration file.
func FindConfigFile() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "find-config-paths").
			Build()
	}

	for _, path := range configPaths {
		configFilePath := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFilePath); err == nil {
			return configFilePath, nil
		}
	}

	return "", errors.Newf("config file not found").
		Category(errors.CategoryFileIO).
		Context("operation", "find-config-file").
		Build()
}

// GetBasePath expands environment variables in the given path and ensures the resulting path exists.
func GetBasePath(path string) string {
	// Expand environment variables in the path.
	expandedPath := os.ExpandEnv(path)

	// Normalize the path to handle any irregularities such as trailing slashes.
	basePath := filepath.Clean(expandedPath)

	// Check if the directory exists.
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		// Attempt to create the directory if it doesn't exist.
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			slog.Warn("Failed to create directory", "path", basePath, "error", err)
		}
	}

	return basePath
}

// GetFfmpegBinaryName returns the platform specific ffmpeg binary name
func GetFfmpegBinaryName() string {
	if runtime.GOOS == osWindows {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

// GetFfprobeBinaryName returns the platform specific ffprobe binary name
func GetFfprobeBinaryName() string {
	if runtime.GOOS == osWindows {
		return "ffprobe.exe"
	}
	return "ffprobe"
}

// ValidateToolPath checks if a tool is available, either at an explicit path or in the system PATH.
// It returns the validated path to the tool if found, or an empty string and an error otherwise.
func ValidateToolPath(configuredPath, toolName string) (string, error) {
	if configuredPath != "" {
		// Check if the explicitly configured path exists and is a file
		if info, err := os.Stat(configuredPath); err == nil && !info.IsDir() {
			// The actual execution will fail later if it's not executable.
			return configuredPath, nil
		}
		// If configured path is invalid, log a warning but still check PATH as a fallback
		slog.Warn("Configured tool path invalid or not found, checking system PATH",
			"configured_path", configuredPath,
			"tool", toolName)
	}

	// If no configured path or the configured path was invalid, check the system PATH
	pathFromLookPath, err := exec.LookPath(toolName)
	if err == nil {
		return pathFromLookPath, nil // Found in PATH
	}

	// If not found in configured path or system PATH
	if configuredPath != "" {
		return "", fmt.Errorf("tool '%s' not found at configured path '%s' or in system PATH", toolName, configuredPath)
	}
	return "", fmt.Errorf("tool '%s' not found in system PATH and no path configured", toolName)
}

// ResolveVideoTools resolves the ffmpeg and ffprobe paths into the settings,
// honoring configured paths and falling back to the system PATH.
func ResolveVideoTools(settings *Settings) error {
	ffmpegPath, err := ValidateToolPath(settings.Inspection.Video.FfmpegPath, GetFfmpegBinaryName())
	if err != nil {
		return errors.New(err).
			Category(errors.CategorySystem).
			Context("tool", "ffmpeg").
			Build()
	}
	settings.Inspection.Video.FfmpegPath = ffmpegPath

	ffprobePath, err := ValidateToolPath(settings.Inspection.Video.FfprobePath, GetFfprobeBinaryName())
	if err != nil {
		return errors.New(err).
			Category(errors.CategorySystem).
			Context("tool", "ffprobe").
			Build()
	}
	settings.Inspection.Video.FfprobePath = ffprobePath

	return nil
}

// moveFile moves a file from src to dst, working across devices
func moveFile(src, dst string) error {
	// Try to rename the file first (this works for moves within the same filesystem)
	if err := os.Rename(src, dst); err == nil {
		return nil // If rename succeeds, we're done
	}

	// If rename fails, fall back to copy and delete method
	// Validate paths to prevent directory traversal
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("error resolving source path: %w", err)
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("error resolving destination path: %w", err)
	}

	srcFile, err := os.Open(srcAbs) //nolint:gosec // G304: srcAbs is filepath.Abs resolved path
	if err != nil {
		return fmt.Errorf("error opening source file: %w", err)
	}
	defer func() {
		if err := srcFile.Close(); err != nil {
			slog.Warn("Failed to close source file", "error", err)
		}
	}()

	dstFile, err := os.Create(dstAbs) //nolint:gosec // G304: dstAbs is filepath.Abs resolved path
	if err != nil {
		return fmt.Errorf("error creating destination file: %w", err)
	}
	defer func() {
		if err := dstFile.Close(); err != nil {
			slog.Warn("Failed to close destination file", "error", err)
		}
	}()

	// Copy the contents from source to destination
	_, err = io.Copy(dstFile, srcFile)
	if err != nil {
		return fmt.Errorf("error copying file contents: %w", err)
	}

	// After successful copy, delete the source file
	if err := os.Remove(src); err != nil {
		// The move was partially successful (the copy succeeded)
		return fmt.Errorf("error removing source file after copy: %w", err)
	}

	return nil // Move completed successfully
}
