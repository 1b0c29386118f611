// Package remark decides which students get a written remark and assembles
// the remark text from the corpus file.
//
// Homework completion is guessed from the 复习检查 column: any row containing
// 没 or 未 marks the student unfinished. The guess is crude and the remark
// should be reviewed before it goes out.
package remark

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/aerissecure/reportassistant/dataset"
)

// Subjects that get a remark, in priority order. A student taking several
// is filed under the first one only.
const (
	SubjectPrep  = "留学预备"
	SubjectTOEFL = "托福"
	SubjectIELTS = "雅思"
	SubjectSAT   = "sat"
)

var (
	subjectPriority   = []string{SubjectPrep, SubjectTOEFL, SubjectIELTS, SubjectSAT}
	unfinishedMarkers = []string{"没", "未"}
)

// Corpus segment indices.
const (
	segOpening = iota
	segSATDone
	segPrepDone
	segExamDone
	segUnfinished
	segPrepAdvice
	segTOEFLAdvice
	segIELTSAdvice
	segSATAdvice
	corpusSegments
)

// Info is one student's remark input. Unfinished is 1 when any homework check
// of the student says it was not done, 0 otherwise.
type Info struct {
	Student    string
	Subject    string
	Unfinished int
}

// GetInfo lists the students that need a remark. list[i] is info[i].Student;
// the order is subject priority first, then dataset student order.
func GetInfo(ds *dataset.Dataset) (list []string, info []Info) {
	unfinished := make(map[string]bool)
	taking := make(map[string]map[string]bool, len(subjectPriority))
	for _, s := range subjectPriority {
		taking[s] = make(map[string]bool)
	}
	for _, r := range ds.Records {
		for _, m := range unfinishedMarkers {
			if strings.Contains(r.HomeworkCheck, m) {
				unfinished[r.Student] = true
			}
		}
		for _, s := range subjectPriority {
			if strings.Contains(r.Course, s) {
				taking[s][r.Student] = true
			}
		}
	}

	assigned := make(map[string]bool)
	students := ds.Students()
	for _, subject := range subjectPriority {
		for _, student := range students {
			if assigned[student] || !taking[subject][student] {
				continue
			}
			assigned[student] = true
			flag := 0
			if unfinished[student] {
				flag = 1
			}
			list = append(list, student)
			info = append(info, Info{Student: student, Subject: subject, Unfinished: flag})
		}
	}
	return list, info
}

// Corpus is the remark corpus split into its segments.
type Corpus []string

// LoadCorpus reads a corpus file whose segments are separated by '%'.
func LoadCorpus(path string) (Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := ParseCorpus(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCorpus splits text on '%'.
func ParseCorpus(text string) (Corpus, error) {
	c := Corpus(strings.Split(text, "%"))
	if len(c) < corpusSegments {
		return nil, fmt.Errorf("corpus has %d segments, want %d", len(c), corpusSegments)
	}
	return c, nil
}

// Generate assembles the remark for one student: the opening with [name] and
// [subject] filled in, a homework clause, a line break and the subject's
// study advice.
func (c Corpus) Generate(name string, info Info) string {
	var b strings.Builder
	opening := strings.ReplaceAll(c[segOpening], "[name]", name)
	b.WriteString(strings.ReplaceAll(opening, "[subject]", info.Subject))

	if info.Unfinished == 0 {
		switch info.Subject {
		case SubjectPrep:
			b.WriteString(c[segPrepDone])
		case SubjectTOEFL, SubjectIELTS:
			b.WriteString(c[segExamDone])
		case SubjectSAT:
			b.WriteString(c[segSATDone])
		}
	} else {
		b.WriteString(c[segUnfinished])
	}

	b.WriteString("\n")
	switch info.Subject {
	case SubjectPrep:
		b.WriteString(c[segPrepAdvice])
	case SubjectTOEFL:
		b.WriteString(c[segTOEFLAdvice])
	case SubjectIELTS:
		b.WriteString(c[segIELTSAdvice])
	case SubjectSAT:
		b.WriteString(c[segSATAdvice])
	}
	return b.String()
}

// GenerateFile loads the corpus at path and generates one remark.
func GenerateFile(path, name string, info Info) (string, error) {
	c, err := LoadCorpus(path)
	if err != nil {
		return "", err
	}
	return c.Generate(name, info), nil
}

// ShortName is how a remark addresses a student: the identity without Latin
// letters, last two characters.
func ShortName(student string) string {
	var kept []rune
	for _, r := range student {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) > 2 {
		kept = kept[len(kept)-2:]
	}
	return string(kept)
}
