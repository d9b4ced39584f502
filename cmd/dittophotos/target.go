package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/marmos91/dittophotos/pkg/media"
)

// target is an item reference given on the command line: either a content
// identifier or "#<index>" for a catalog position (0 is the newest item).
type target struct {
	id    media.ContentID
	index int
	byID  bool
}

func parseTarget(arg string) (target, error) {
	if rest, ok := strings.CutPrefix(arg, "#"); ok {
		index, err := strconv.Atoi(rest)
		if err != nil {
			return target{}, fmt.Errorf("invalid index %q: %w", arg, err)
		}
		return target{index: index}, nil
	}

	id, err := media.ParseContentID(arg)
	if err != nil {
		return target{}, err
	}
	return target{id: id, byID: true}, nil
}

func (t target) String() string {
	if t.byID {
		return t.id.String()
	}
	return "#" + strconv.Itoa(t.index)
}
