package junit

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ErrNotJUnit is returned when the document root is neither testsuites nor testsuite.
var ErrNotJUnit = errors.New("not a JUnit report")

// TestReport is the JUnit report structure used both for reading runner output and for writing published runs.
type TestReport struct {
	XMLName    xml.Name    `xml:"testsuites"`
	Name       string      `xml:"name,attr,omitempty"`
	TestSuites []TestSuite `xml:"testsuite"`
}

// TestSuite ...
type TestSuite struct {
	XMLName   xml.Name   `xml:"testsuite"`
	Name      string     `xml:"name,attr"`
	Tests     int        `xml:"tests,attr"`
	Failures  int        `xml:"failures,attr"`
	Errors    int        `xml:"errors,attr,omitempty"`
	Skipped   int        `xml:"skipped,attr"`
	Time      float64    `xml:"time,attr"`
	Timestamp string     `xml:"timestamp,attr,omitempty"`
	Hostname  string     `xml:"hostname,attr,omitempty"`
	TestCases []TestCase `xml:"testcase"`

	// Some runners (pytest, mocha) nest suites into suites.
	TestSuites []TestSuite `xml:"testsuite,omitempty"`
}

// TestCase ...
type TestCase struct {
	XMLName   xml.Name `xml:"testcase"`
	Name      string   `xml:"name,attr"`
	ClassName string   `xml:"classname,attr"`
	Time      float64  `xml:"time,attr"`
	Failure   *Failure `xml:"failure,omitempty"`
	Error     *Failure `xml:"error,omitempty"`
	Skipped   *Skipped `xml:"skipped,omitempty"`
}

// Failure ...
type Failure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Value   string `xml:",chardata"`
}

// Skipped ...
type Skipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// Decode reads a JUnit document with either a testsuites or a single testsuite root element.
func Decode(r io.Reader) (TestReport, error) {
	decoder := xml.NewDecoder(r)

	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return TestReport{}, ErrNotJUnit
			}
			return TestReport{}, fmt.Errorf("failed to read xml token: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "testsuites":
			var report TestReport
			if err := decoder.DecodeElement(&report, &start); err != nil {
				return TestReport{}, fmt.Errorf("failed to decode testsuites: %w", err)
			}
			return report, nil
		case "testsuite":
			var suite TestSuite
			if err := decoder.DecodeElement(&suite, &start); err != nil {
				return TestReport{}, fmt.Errorf("failed to decode testsuite: %w", err)
			}
			return TestReport{TestSuites: []TestSuite{suite}}, nil
		default:
			return TestReport{}, ErrNotJUnit
		}
	}
}

// Encode writes the report as an indented XML document.
func Encode(w io.Writer, report TestReport) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode test report: %w", err)
	}
	return encoder.Flush()
}

// Walk calls fn for every test case of the suite and its nested suites, depth first.
func (s TestSuite) Walk(fn func(suite TestSuite, testCase TestCase)) {
	for _, testCase := range s.TestCases {
		fn(s, testCase)
	}
	for _, nested := range s.TestSuites {
		nested.Walk(fn)
	}
}
