package transform

import (
	"archive/zip"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// identityStep passes its subject through unchanged.
type identityStep struct{}

func newIdentityStep(map[string]string, string) (Step, error) { return identityStep{}, nil }

func (identityStep) DisplayName() string { return "identity" }

func (identityStep) Transform(subject Subject, _ GraphDependenciesResolver) Subject {
	return subject
}

// copyStep copies every input file into its work directory.
type copyStep struct {
	workDir string
}

func newCopyStep(_ map[string]string, workDir string) (Step, error) {
	return &copyStep{workDir: workDir}, nil
}

func (s *copyStep) DisplayName() string { return "copy" }

func (s *copyStep) Transform(subject Subject, _ GraphDependenciesResolver) Subject {
	var out []string
	for _, in := range subject.Files() {
		dst := filepath.Join(s.workDir, filepath.Base(in))
		if err := copyFile(in, dst); err != nil {
			return Failure(subject.DisplayName(), fmt.Errorf("copy %s: %w", in, err))
		}
		out = append(out, dst)
	}
	return subject.WithProducedFiles(out...)
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
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// unzipStep extracts each input zip archive into a directory per archive,
// producing the extracted entries in archive order.
type unzipStep struct {
	workDir string
}

func newUnzipStep(_ map[string]string, workDir string) (Step, error) {
	return &unzipStep{workDir: workDir}, nil
}

func (s *unzipStep) DisplayName() string { return "unzip" }

func (s *unzipStep) Transform(subject Subject, _ GraphDependenciesResolver) Subject {
	var out []string
	for _, in := range subject.Files() {
		dest := filepath.Join(s.workDir, strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)))
		files, err := extractZip(in, dest)
		if err != nil {
			return Failure(subject.DisplayName(), fmt.Errorf("unzip %s: %w", in, err))
		}
		out = append(out, files...)
	}
	return subject.WithProducedFiles(out...)
}

func extractZip(archive, dest string) ([]string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var files []string
	for _, f := range r.File {
		target := filepath.Join(dest, filepath.Clean(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return nil, fmt.Errorf("entry %q escapes extraction root", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, err
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		w, err := os.Create(target)
		if err != nil {
			rc.Close()
			return nil, err
		}
		_, err = io.Copy(w, rc)
		rc.Close()
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
		files = append(files, target)
	}
	return files, nil
}

// checksumStep writes a digest file next to each input in its work
// directory. The algorithm argument selects sha256 (default) or sha1.
type checksumStep struct {
	workDir   string
	algorithm string
}

func newChecksumStep(args map[string]string, workDir string) (Step, error) {
	algorithm := args["algorithm"]
	if algorithm == "" {
		algorithm = "sha256"
	}
	switch algorithm {
	case "sha256", "sha1":
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", algorithm)
	}
	return &checksumStep{workDir: workDir, algorithm: algorithm}, nil
}

func (s *checksumStep) DisplayName() string { return "checksum" }

func (s *checksumStep) Transform(subject Subject, _ GraphDependenciesResolver) Subject {
	var out []string
	for _, in := range subject.Files() {
		sum, err := s.digest(in)
		if err != nil {
			return Failure(subject.DisplayName(), fmt.Errorf("checksum %s: %w", in, err))
		}
		dst := filepath.Join(s.workDir, filepath.Base(in)+"."+s.algorithm)
		line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(in))
		if err := os.WriteFile(dst, []byte(line), 0o644); err != nil {
			return Failure(subject.DisplayName(), fmt.Errorf("checksum %s: %w", in, err))
		}
		out = append(out, dst)
	}
	return subject.WithProducedFiles(out...)
}

func (s *checksumStep) digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var h hash.Hash
	if s.algorithm == "sha1" {
		h = sha1.New()
	} else {
		h = sha256.New()
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
