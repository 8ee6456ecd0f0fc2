package compile

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caddyglow/glovebox/internal/paths"
)

// placeArtifacts copies each located UF2 into outputDir named by target
// side convention. If outputDir is empty, artifacts are written to the
// current directory and additionally packed into a single zip
// (spec §4.7 "artifact collection").
func placeArtifacts(outputDir, layoutBasename string, result *Result) error {
	if layoutBasename == "" {
		layoutBasename = "firmware"
	}

	destDir := outputDir
	if destDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		destDir = wd
	}
	if err := paths.EnsureDirPath(destDir); err != nil {
		return fmt.Errorf("create output directory %s: %w", destDir, err)
	}

	placed := make([]string, 0, len(result.Artifacts))
	for i := range result.Artifacts {
		name := artifactName(layoutBasename, result.Artifacts[i].Side)
		dest := filepath.Join(destDir, name)
		if err := copyFile(result.Artifacts[i].Path, dest); err != nil {
			return fmt.Errorf("place artifact %s: %w", name, err)
		}
		result.Artifacts[i].Path = dest
		placed = append(placed, dest)
	}

	if outputDir == "" && len(placed) > 0 {
		zipPath := filepath.Join(destDir, layoutBasename+"_artefacts.zip")
		if err := zipFiles(zipPath, placed); err != nil {
			return fmt.Errorf("create artefacts archive: %w", err)
		}
	}
	return nil
}

func artifactName(basename, side string) string {
	if side == "" || side == "unified" {
		return basename + ".uf2"
	}
	return basename + "_" + side + ".uf2"
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func zipFiles(zipPath string, files []string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, path := range files {
		if err := addFileToZip(w, path); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

func addFileToZip(w *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	entry, err := w.Create(filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, in)
	return err
}
