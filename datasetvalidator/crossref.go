package datasetvalidator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// crossReferenceIssues checks that label integers name class_names keys and
// that split entries name labels keys. It expects every required key to be
// present; values of the wrong type are skipped (type checks report those).
func crossReferenceIssues(obj map[string]any) []string {
	var issues []string

	classNames, _ := obj["class_names"].(map[string]any)
	labels, _ := obj["labels"].(map[string]any)
	splits, _ := obj["splits"].(map[string]any)

	for _, key := range sortedKeys(classNames) {
		if !isDecimalInteger(key) {
			issues = append(issues, fmt.Sprintf("class_names key %q is not a decimal integer", key))
		}
	}

	if classNames != nil {
		for _, video := range sortedKeys(labels) {
			sequence, ok := labels[video].([]any)
			if !ok {
				continue
			}
			reported := make(map[string]bool)
			for i, item := range sequence {
				label, ok := integerLabel(item)
				if !ok {
					issues = append(issues, fmt.Sprintf("Label at index %d in %q is not an integer", i, video))
					continue
				}
				if _, known := classNames[label]; known || reported[label] {
					continue
				}
				reported[label] = true
				issues = append(issues, fmt.Sprintf("Label %s in %q is not a class_names key", label, video))
			}
		}
	}

	if splits != nil {
		for _, split := range SplitNames {
			entries, ok := splits[split].([]any)
			if !ok {
				issues = append(issues, fmt.Sprintf("Missing %q list", "splits."+split))
				continue
			}
			for i, entry := range entries {
				video, ok := entry.(string)
				if !ok {
					issues = append(issues, fmt.Sprintf("Split %q entry %d is not a filename", split, i))
					continue
				}
				if labels == nil {
					continue
				}
				if _, labelled := labels[video]; !labelled {
					issues = append(issues, fmt.Sprintf("Split %q references %q which has no labels entry", split, video))
				}
			}
		}
	}

	return issues
}

// integerLabel returns the canonical decimal form of an integral JSON number
func integerLabel(item any) (string, bool) {
	switch v := item.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return strconv.FormatInt(n, 10), true
		}
		f, err := v.Float64()
		if err != nil || f != float64(int64(f)) {
			return "", false
		}
		return strconv.FormatInt(int64(f), 10), true
	case float64:
		if v != float64(int64(v)) {
			return "", false
		}
		return strconv.FormatInt(int64(v), 10), true
	default:
		return "", false
	}
}

func isDecimalInteger(s string) bool {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return false
	}
	return strconv.FormatInt(n, 10) == s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
