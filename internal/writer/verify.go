package writer

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
	"github.com/BegaDeveloper/wwcorpus/internal/storage"
)

var ErrVerify = errors.New("output verification failed")

// Check is one verification outcome.
type Check struct {
	Name   string
	Passed bool
	Detail string
}

type VerifyReport struct {
	Manifest Manifest
	Checks   []Check
}

func (report *VerifyReport) add(name string, passed bool, detail string) {
	report.Checks = append(report.Checks, Check{Name: name, Passed: passed, Detail: detail})
}

func (report VerifyReport) Failed() []Check {
	failed := []Check{}
	for _, check := range report.Checks {
		if !check.Passed {
			failed = append(failed, check)
		}
	}
	return failed
}

// Verify reads a finished build back from store. Every failed check is
// reported; the returned error wraps ErrVerify when any check failed.
func Verify(ctx context.Context, store storage.FileStore) (VerifyReport, error) {
	report := VerifyReport{}
	manifest, err := ReadManifest(ctx, store)
	if err != nil {
		report.add("manifest", false, err.Error())
		return report, fmt.Errorf("%w: %w", ErrVerify, err)
	}
	report.Manifest = manifest
	report.add("manifest", true, "run "+manifest.RunID)

	owners := map[string]string{}
	for _, split := range dataset.Splits {
		expected, ok := manifest.Splits[string(split)]
		name := MetadataName(split)
		if !ok {
			report.add(name, false, "split missing from manifest")
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		verifySplit(ctx, store, split, expected, owners, &report)
	}

	if failed := report.Failed(); len(failed) > 0 {
		return report, fmt.Errorf("%w: %d of %d checks failed, first: %s: %s", ErrVerify, len(failed), len(report.Checks), failed[0].Name, failed[0].Detail)
	}
	return report, nil
}

func verifySplit(ctx context.Context, store storage.FileStore, split dataset.Split, expected ManifestSplit, owners map[string]string, report *VerifyReport) {
	name := expected.File
	if name == "" {
		name = MetadataName(split)
	}
	payload, err := storage.ReadAll(ctx, store, name)
	if err != nil {
		report.add(name, false, err.Error())
		return
	}

	digest := sha256.Sum256(payload)
	actualDigest := hex.EncodeToString(digest[:])
	report.add(name+" digest", actualDigest == expected.SHA256, fmt.Sprintf("expected %s, got %s", expected.SHA256, actualDigest))

	lines := 0
	problems := []string{}
	leaks := []string{}
	missingAudio := 0
	sharedAudio := 0
	referenced := map[string]bool{}
	scanner := bufio.NewScanner(bytes.NewReader(payload))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines++
		entry := Entry{}
		if decodeError := json.Unmarshal(scanner.Bytes(), &entry); decodeError != nil {
			problems = append(problems, fmt.Sprintf("line %d: %v", lines, decodeError))
			continue
		}
		if entry.Identifier == "" || entry.Path == "" {
			problems = append(problems, fmt.Sprintf("line %d: missing identifier or path", lines))
			continue
		}
		if entry.Split != string(split) {
			problems = append(problems, fmt.Sprintf("line %d: %s belongs to split %q", lines, entry.Identifier, entry.Split))
		}
		if owner, seen := owners[entry.Identifier]; !seen {
			owners[entry.Identifier] = string(split)
		} else if owner != string(split) {
			leaks = append(leaks, fmt.Sprintf("%s in %s and %s", entry.Identifier, owner, split))
		}
		if strings.HasPrefix(entry.Path, "audio/") {
			if referenced[entry.Path] {
				sharedAudio++
			}
			referenced[entry.Path] = true
			if exists, existsError := store.Exists(ctx, entry.Path); existsError != nil || !exists {
				missingAudio++
			}
		}
	}
	if scanError := scanner.Err(); scanError != nil {
		problems = append(problems, scanError.Error())
	}

	report.add(name+" records", lines == expected.Records, fmt.Sprintf("manifest %d, file %d", expected.Records, lines))
	report.add(name+" entries", len(problems) == 0, firstOr(problems, fmt.Sprintf("%d entries well formed", lines)))
	report.add(name+" disjoint", len(leaks) == 0, firstOr(leaks, "no identifier shared with another split"))
	report.add(name+" audio", missingAudio == 0 && sharedAudio == 0, fmt.Sprintf("%d copied payloads missing, %d referenced twice", missingAudio, sharedAudio))

	stored, listError := store.List(ctx, AudioDir(split))
	if listError != nil {
		report.add(AudioDir(split)+" orphans", false, listError.Error())
		return
	}
	orphans := []string{}
	for _, file := range stored {
		if !referenced[file] {
			orphans = append(orphans, file)
		}
	}
	report.add(AudioDir(split)+" orphans", len(orphans) == 0, firstOr(orphans, fmt.Sprintf("%d payloads, all referenced", len(stored))))
}

func firstOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	if len(values) == 1 {
		return values[0]
	}
	return fmt.Sprintf("%s (and %d more)", values[0], len(values)-1)
}
