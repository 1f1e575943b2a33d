package cmd

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/s0up4200/szuru/szurubooru"
)

// parseAssignments turns key=value arguments into a map keyed by the
// lowerCamel field name, so safety, content_url and content-url all work.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected key=value", arg)
		}
		out[strcase.ToLowerCamel(key)] = strings.TrimSpace(value)
	}
	return out, nil
}

// splitList splits a comma-separated value, dropping blanks
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseIDs(values []string) ([]int, error) {
	ids := make([]int, 0, len(values))
	for _, v := range values {
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// applyPostAssignments stages edits on post without pushing
func applyPostAssignments(ctx context.Context, post *szurubooru.Post, values map[string]string) error {
	for _, key := range slices.Sorted(maps.Keys(values)) {
		value := values[key]
		var err error
		switch key {
		case "safety":
			err = post.SetSafety(ctx, szurubooru.Safety(value))
		case "source", "sources":
			err = post.SetSources(ctx, splitList(value))
		case "tags":
			err = post.SetTagNames(ctx, splitList(value))
		case "relations":
			var ids []int
			if ids, err = parseIDs(splitList(value)); err == nil {
				err = post.SetRelationIDs(ctx, ids)
			}
		case "loop", "sound":
			var on bool
			if on, err = strconv.ParseBool(value); err == nil {
				if key == "loop" {
					err = post.SetLoop(ctx, on)
				} else {
					err = post.SetSound(ctx, on)
				}
			}
		default:
			err = fmt.Errorf("unknown post field %q (valid: safety, source, tags, relations, loop, sound)", key)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// applyTagAssignments stages edits on tag without pushing
func applyTagAssignments(ctx context.Context, tag *szurubooru.Tag, values map[string]string) error {
	for _, key := range slices.Sorted(maps.Keys(values)) {
		value := values[key]
		var err error
		switch key {
		case "names":
			err = tag.SetNames(ctx, splitList(value))
		case "primaryName", "name":
			err = tag.SetPrimaryName(ctx, value)
		case "category":
			err = tag.SetCategory(ctx, value)
		case "description":
			err = tag.SetDescription(ctx, value)
		case "implications", "suggestions":
			if key == "implications" {
				err = tag.SetImplicationNames(ctx, splitList(value))
			} else {
				err = tag.SetSuggestionNames(ctx, splitList(value))
			}
		default:
			err = fmt.Errorf("unknown tag field %q (valid: names, primaryName, category, description, implications, suggestions)", key)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}
