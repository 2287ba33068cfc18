package shapefile

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// ESRI code page numbers seen in .cpg files.
var codePages = map[string]string{
	"88591": "ISO-8859-1",
	"88592": "ISO-8859-2",
	"88595": "ISO-8859-5",
	"1250":  "windows-1250",
	"1251":  "windows-1251",
	"1252":  "windows-1252",
	"437":   "IBM437",
	"850":   "IBM850",
	"866":   "IBM866",
}

// CodePage returns the character encoding named by the .cpg sidecar of the
// shapefile at path. It returns nil when there is no .cpg or it names UTF-8.
func CodePage(path string) (encoding.Encoding, error) {
	_, enc, err := readCodePage(path)
	return enc, err
}

// readCodePage returns the .cpg text and the encoding it names.
func readCodePage(path string) (string, encoding.Encoding, error) {
	raw, err := os.ReadFile(BasePath(path) + ".cpg")
	if os.IsNotExist(err) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, err
	}

	page := strings.TrimSpace(string(raw))
	name := page
	if alias, ok := codePages[strings.ToUpper(name)]; ok {
		name = alias
	}
	if name == "" || strings.EqualFold(name, "UTF8") {
		return page, nil, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return "", nil, fmt.Errorf("[CodePage] unknown code page %q in pkg [shapefile]", name)
	}
	if enc == unicode.UTF8 {
		return page, nil, nil
	}
	return page, enc, nil
}

// decodeRows converts every cell from enc to UTF-8.
func decodeRows(rows [][]string, enc encoding.Encoding) error {
	dec := enc.NewDecoder()
	for _, row := range rows {
		for k, cell := range row {
			s, err := dec.String(cell)
			if err != nil {
				return err
			}
			row[k] = s
		}
	}
	return nil
}
