package makeout

import (
	"regexp"
	"strconv"
	"strings"
)

// q matches either opening quote: make < 4.3 uses `name', later versions 'name'.
const q = "[`']"

var (
	prereqRe = regexp.MustCompile(`^\s*[Nn]o need to remake target ` + q + `(.+?)'(?:\.|;|$)`)
	taskRe   = regexp.MustCompile(`^make(?:\[\d+\])?: \*\*\* \[.+\] Error (\d+)`)
	buildRe  = regexp.MustCompile(`^make(?:\[\d+\])?: (?:\*\*\* )?(.+?)(?:\.\s+Stop\.)?$`)
	syntaxRe = regexp.MustCompile(`^(?:\S*/)?(?:GNUmakefile|[Mm]akefile):(\d+): (?:\*\*\* )?(.+?)\.\s+Stop\.$`)
	noticeRe = regexp.MustCompile(`^(?:warning:|Waiting for unfinished jobs|Target .+ not remade because of errors|Deleting (?:intermediate )?file|\[.+\] Error \d+ \(ignored\))`)
	depRe    = regexp.MustCompile(`Prerequisite ` + q + `(.+?)' (?:is (?:older|newer) than|of) target ` + q + `(.+?)'`)
)

// boilerplate lists the trace lines that carry no information for the user.
var boilerplate = []*regexp.Regexp{
	regexp.MustCompile(`^GNU Make`),
	regexp.MustCompile(`^Copyright`),
	regexp.MustCompile(`^License GPL`),
	regexp.MustCompile(`^This is free software`),
	regexp.MustCompile(`^There is NO warranty`),
	regexp.MustCompile(`^PARTICULAR PURPOSE`),
	regexp.MustCompile(`^This program built for`),
	regexp.MustCompile(`^Built for`),
	regexp.MustCompile(`^Reading makefile`),
	regexp.MustCompile(`^Updating makefiles`),
	regexp.MustCompile(`Pruning file`),
	regexp.MustCompile(`Updating goal targets`),
	regexp.MustCompile(`Considering target`),
	regexp.MustCompile(`Must remake target`),
	regexp.MustCompile(`Successfully remade target`),
	regexp.MustCompile(`Finished prerequisites of target`),
	regexp.MustCompile(`always-make flag`),
	regexp.MustCompile(`does not exist`),
}

// Pattern is one entry of the ordered classification table.
type Pattern struct {
	// Name identifies the pattern in tests and diagnostics.
	Name string

	// Match returns the classification and true when the pattern applies.
	Match func(line string) (Line, bool)
}

// Patterns is the classification table, evaluated in order; the first match wins.
// Message is the fallback when nothing matches.
var Patterns = []Pattern{
	{Name: "prereq-file", Match: matchPrereq},
	{Name: "task-error", Match: matchTaskError},
	{Name: "build-error", Match: matchBuildError},
	{Name: "syntax-error", Match: matchSyntaxError},
	{Name: "dependency", Match: matchDependency},
	{Name: "empty", Match: matchEmpty},
	{Name: "ignored", Match: matchIgnored},
}

// Classify maps one trace line to its classification.
func Classify(line string) Line {
	line = strings.TrimRight(line, "\r")

	for _, p := range Patterns {
		if l, ok := p.Match(line); ok {
			return l
		}
	}

	return Message(line)
}

func matchPrereq(line string) (Line, bool) {
	m := prereqRe.FindStringSubmatch(line)
	if m == nil {
		return Line{}, false
	}

	return PrereqFile(m[1]), true
}

func matchTaskError(line string) (Line, bool) {
	m := taskRe.FindStringSubmatch(line)
	if m == nil {
		return Line{}, false
	}

	return TaskError(m[1]), true
}

func matchBuildError(line string) (Line, bool) {
	m := buildRe.FindStringSubmatch(line)
	if m == nil {
		return Line{}, false
	}

	// Warnings and job-control notices do not stop the driver. With -j or -k
	// they follow a task error that must stay the reported one.
	if noticeRe.MatchString(m[1]) {
		return Line{}, false
	}

	return BuildError(m[1]), true
}

func matchSyntaxError(line string) (Line, bool) {
	m := syntaxRe.FindStringSubmatch(line)
	if m == nil {
		return Line{}, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Line{}, false
	}

	return SyntaxError(n, m[2]), true
}

func matchDependency(line string) (Line, bool) {
	m := depRe.FindStringSubmatch(line)
	if m == nil {
		return Line{}, false
	}

	return Dependency(m[2], m[1]), true
}

func matchEmpty(line string) (Line, bool) {
	if strings.TrimSpace(line) != "" {
		return Line{}, false
	}

	return Empty(), true
}

func matchIgnored(line string) (Line, bool) {
	for _, re := range boilerplate {
		if re.MatchString(line) {
			return Ignored(), true
		}
	}

	return Line{}, false
}
