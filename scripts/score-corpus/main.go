package main

import (
	"bufio"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BegaDeveloper/wwcorpus/internal/config"
	"github.com/BegaDeveloper/wwcorpus/internal/dataset"
	"github.com/BegaDeveloper/wwcorpus/internal/writer"
)

func main() {
	buildDir := flag.String("dir", "./data/corpus", "directory of a finished local build")
	words := flag.String("words", " hey,fire,fox", "comma separated keywords to count")
	flag.Parse()

	if scoreError := scoreCorpus(*buildDir, config.SplitList(*words)); scoreError != nil {
		fmt.Fprintln(os.Stderr, scoreError)
		os.Exit(1)
	}
}

func scoreCorpus(buildDir string, words []string) error {
	fmt.Printf("corpus: %s\n", buildDir)
	transcriptionCounts := map[string]int{}
	for _, split := range dataset.Splits {
		path := filepath.Join(buildDir, writer.MetadataName(split))
		file, openError := os.Open(path)
		if openError != nil {
			return fmt.Errorf("open file: %w", openError)
		}

		total := 0
		invalid := 0
		keywordHits := map[string]int{}
		for _, word := range words {
			keywordHits[strings.TrimSpace(word)] = 0
		}
		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			total++
			entry := writer.Entry{}
			if unmarshalError := json.Unmarshal([]byte(line), &entry); unmarshalError != nil {
				invalid++
				continue
			}
			if entrySplit, parseError := dataset.ParseSplit(entry.Split); parseError != nil || entrySplit != split {
				invalid++
				continue
			}
			padded := " " + strings.ToLower(entry.Transcription)
			for _, word := range words {
				if strings.Contains(padded, strings.ToLower(word)) {
					keywordHits[strings.TrimSpace(word)]++
				}
			}
			transcriptionCounts[transcriptionIdentity(entry.Transcription)]++
		}
		scanError := scanner.Err()
		file.Close()
		if scanError != nil {
			return fmt.Errorf("scan file: %w", scanError)
		}

		fmt.Printf("%s: records_total=%d invalid=%d\n", split, total, invalid)
		fmt.Println("  keyword_hits:")
		printSortedCounts(keywordHits)
	}

	duplicates := 0
	for _, count := range transcriptionCounts {
		if count > 1 {
			duplicates += count - 1
		}
	}
	fmt.Printf("repeated_transcriptions=%d distinct=%d\n", duplicates, len(transcriptionCounts))
	return nil
}

func transcriptionIdentity(transcription string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(transcription)), " ")
	sum := sha1.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func printSortedCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("    %s: %d\n", key, counts[key])
	}
}
