package file

import "regexp"

// pdfcpuPageNumber matches the page ordinal pdfcpu embeds in the names of
// files written by api.ExtractImagesFile, e.g. "scan_2_0.png" for page 2.
var pdfcpuPageNumber = regexp.MustCompile(`_(\d+)_\d+\.\w+$`)

// pageNumberFromFilename extracts the 1-based page number pdfcpu encoded
// into an extracted-image filename. Returns 1 if the pattern is not
// recognized, since a single-page document's extracted image still needs
// to be attributed to some page.
func pageNumberFromFilename(name string) int {
	m := pdfcpuPageNumber.FindStringSubmatch(name)
	if m == nil {
		return 1
	}
	n := 0
	for _, c := range m[1] {
		n = n*10 + int(c-'0')
	}
	return n
}
