package rubric

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// SubmissionFile is one graded source file.
type SubmissionFile struct {
	Name    string
	Content string
}

// Submission is the read-only student work shared by all evaluators.
type Submission struct {
	Files []SubmissionFile
}

// Combined renders all files into a single block with per-file headers, the
// framing the judgment client receives.
func (s *Submission) Combined() string {
	parts := make([]string, 0, len(s.Files))
	for _, file := range s.Files {
		parts = append(parts, fmt.Sprintf("# === %s ===\n%s", file.Name, file.Content))
	}
	return strings.Join(parts, "\n\n")
}

// Primary returns the first file, which is the entry point for execution.
func (s *Submission) Primary() SubmissionFile {
	if len(s.Files) == 0 {
		return SubmissionFile{}
	}
	return s.Files[0]
}

// LoadSubmission reads the assignment's student files from dir in declaration
// order. A missing, empty, or non-text file makes the whole submission
// unusable, so loading fails rather than grading a partial submission.
func LoadSubmission(dir string, files []string) (*Submission, error) {
	if len(files) == 0 {
		return nil, configErrorf("assignment.student_files", "no student files declared")
	}

	submission := &Submission{Files: make([]SubmissionFile, 0, len(files))}
	for _, name := range files {
		path := filepath.Join(dir, name)

		info, err := os.Stat(path)
		if err != nil {
			return nil, configErrorf("assignment.student_files", "required file missing: %s", name)
		}
		if info.Size() == 0 {
			return nil, configErrorf("assignment.student_files", "required file is empty: %s", name)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, configErrorf("assignment.student_files", "read %s: %v", name, err)
		}

		detected := mimetype.Detect(content)
		if !isTextMIME(detected) {
			return nil, configErrorf("assignment.student_files",
				"file %s is not a text file (detected %s)", name, detected.String())
		}

		submission.Files = append(submission.Files, SubmissionFile{Name: name, Content: string(content)})
	}

	return submission, nil
}

func isTextMIME(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}
