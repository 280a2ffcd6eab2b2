package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"os"
	"strings"

	"github.com/mmr-tortoise/shipyard/internal/gitrepo"
	"github.com/mmr-tortoise/shipyard/internal/model"
)

// entryMode is the fixed permission applied to every archived file, in both
// formats. Fixing the mode (instead of copying the tree's modes) keeps the
// two archives byte-comparable and independent of contributor umasks.
const entryMode = 0o644

// skipDirs are directory names excluded from archives: version-control
// metadata and build/artifact output that must never ship in a source
// package.
var skipDirs = map[string]bool{
	".git":    true,
	".github": true,
	"target":  true,
	"dist":    true,
}

// BuildFromTree packages the subtree of a committed tree object into a
// gzip-compressed tar archive and a deflate-compressed zip archive with
// identical file sets.
//
// Content comes exclusively from Git objects (ls-tree + cat-file at the
// given ref), never from the working directory, so untracked files and
// build output cannot leak into the artifact. The first write error in
// either format aborts the whole build; files are never silently skipped.
func BuildFromTree(repo *gitrepo.Repo, ref, subtree, tarPath, zipPath string) error {
	entries, err := repo.LsTree(ref, subtree)
	if err != nil {
		return model.WrapCLIError(model.ExitPackagingError,
			fmt.Sprintf("failed to list tree %s", ref), err)
	}

	tarFile, err := os.Create(tarPath)
	if err != nil {
		return model.WrapCLIError(model.ExitPackagingError, "failed to create tar archive", err)
	}
	defer tarFile.Close()
	gz := gzip.NewWriter(tarFile)
	tw := tar.NewWriter(gz)

	zipFile, err := os.Create(zipPath)
	if err != nil {
		return model.WrapCLIError(model.ExitPackagingError, "failed to create zip archive", err)
	}
	defer zipFile.Close()
	zw := zip.NewWriter(zipFile)

	for _, entry := range entries {
		if shouldSkip(entry.Path) {
			continue
		}

		content, err := repo.BlobContent(entry.SHA)
		if err != nil {
			return model.WrapCLIError(model.ExitPackagingError,
				fmt.Sprintf("failed to read blob for %s", entry.Path), err)
		}

		if err := appendTarEntry(tw, entry.Path, content); err != nil {
			return model.WrapCLIError(model.ExitPackagingError,
				fmt.Sprintf("failed to append %s to tar archive", entry.Path), err)
		}
		if err := appendZipEntry(zw, entry.Path, content); err != nil {
			return model.WrapCLIError(model.ExitPackagingError,
				fmt.Sprintf("failed to append %s to zip archive", entry.Path), err)
		}
	}

	// Close order matters: the tar writer flushes into the gzip writer,
	// which flushes into the file.
	if err := tw.Close(); err != nil {
		return model.WrapCLIError(model.ExitPackagingError, "failed to finalize tar archive", err)
	}
	if err := gz.Close(); err != nil {
		return model.WrapCLIError(model.ExitPackagingError, "failed to finalize tar archive", err)
	}
	if err := zw.Close(); err != nil {
		return model.WrapCLIError(model.ExitPackagingError, "failed to finalize zip archive", err)
	}
	return nil
}

// shouldSkip reports whether any component of a tree path is an excluded
// directory name.
func shouldSkip(path string) bool {
	for _, part := range strings.Split(path, "/") {
		if skipDirs[part] {
			return true
		}
	}
	return false
}

// appendTarEntry writes one regular file entry with the fixed mode.
// Timestamps are left at zero so archive bytes depend only on tree content.
func appendTarEntry(tw *tar.Writer, path string, content []byte) error {
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     path,
		Mode:     entryMode,
		Size:     int64(len(content)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(content)
	return err
}

// appendZipEntry writes one deflate-compressed entry with the fixed mode.
// Tree paths are already forward-slashed, matching the zip spec.
func appendZipEntry(zw *zip.Writer, path string, content []byte) error {
	hdr := &zip.FileHeader{
		Name:   path,
		Method: zip.Deflate,
	}
	hdr.SetMode(entryMode)
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}
