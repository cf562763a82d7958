// Package graph implements the Dependency Builder & Topological
// Scheduler of spec.md §4.2: it turns a finalized tree's expression
// references into a DAG and produces a deterministic topo order via
// Kahn's algorithm.
package graph

import "regexp"

var (
	rangeCallRe = regexp.MustCompile(`\b\w*(?:Between|ByNodes)\(\s*#([\w:]+)\s*,\s*#([\w:]+)\s*\)`)
	sizeCallRe  = regexp.MustCompile(`\bsize\(\s*#([\w:]+)\s*\)`)
	plainRefRe  = regexp.MustCompile(`#([\w:]+)`)
)

// extracted is what collectRefs finds in a single expression string.
type extracted struct {
	plain     []string
	rangePair [][2]string
	groupSize []string
}

func collectRefs(text string) extracted {
	var e extracted
	for _, m := range rangeCallRe.FindAllStringSubmatch(text, -1) {
		e.rangePair = append(e.rangePair, [2]string{m[1], m[2]})
	}
	for _, m := range sizeCallRe.FindAllStringSubmatch(text, -1) {
		e.groupSize = append(e.groupSize, m[1])
	}
	for _, m := range plainRefRe.FindAllStringSubmatch(text, -1) {
		e.plain = append(e.plain, m[1])
	}
	return e
}
