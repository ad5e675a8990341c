// Package yamlutil splits multi-document YAML files such as report
// definition bundles.
package yamlutil

import (
	"bufio"
	"bytes"
	"strings"
)

// Document is one non-empty document of a YAML stream.
type Document struct {
	// Index is the position among the non-empty documents, from 0.
	Index int

	// Line is the 1-based line of the document's first line in the file.
	Line int

	Data []byte
}

// SplitDocuments splits data on lines consisting only of "---" (optionally
// followed by whitespace or a comment). Empty and whitespace-only
// documents are dropped.
func SplitDocuments(data []byte) []Document {
	var (
		docs  []Document
		cur   bytes.Buffer
		start = 1
		line  = 0
	)

	flush := func() {
		if strings.TrimSpace(cur.String()) != "" {
			docs = append(docs, Document{
				Index: len(docs),
				Line:  start,
				Data:  append([]byte(nil), cur.Bytes()...),
			})
		}

		cur.Reset()
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)

	for sc.Scan() {
		line++
		text := sc.Text()

		if isSeparator(text) {
			flush()
			start = line + 1

			continue
		}

		cur.WriteString(text)
		cur.WriteByte('\n')
	}

	flush()

	return docs
}

func isSeparator(line string) bool {
	if !strings.HasPrefix(line, "---") {
		return false
	}

	rest := strings.TrimSpace(line[3:])

	return rest == "" || strings.HasPrefix(rest, "#")
}
