package report

import (
	"encoding/xml"

	"github.com/tast-lang/tast/internal/model"
)

type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Errors   int             `xml:"errors,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Time     float64         `xml:"time,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *junitOutcome `xml:"failure,omitempty"`
	Error     *junitOutcome `xml:"error,omitempty"`
	Skipped   *junitOutcome `xml:"skipped,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type junitOutcome struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// WriteRunReportJUnit renders report as a JUnit XML document: one
// testsuite, one testcase per step, with a failure/error/skipped child
// element carrying the step's error and a system-out block listing each
// assertion's outcome.
func WriteRunReportJUnit(report *model.RunReport) ([]byte, error) {
	suite := junitTestSuite{
		Name:     report.Plan.Name,
		Tests:    report.Summary.Total,
		Failures: report.Summary.Failed,
		Errors:   report.Summary.Errors,
		Skipped:  report.Summary.Skipped,
		Time:     float64(report.Run.DurationMs) / 1000,
	}

	for _, res := range report.Results {
		tc := junitTestCase{
			Name:      res.Node,
			ClassName: report.Plan.Name,
			Time:      float64(res.DurationMs) / 1000,
			SystemOut: assertionSummary(res.Assertions),
		}
		switch res.Status {
		case model.StatusFailed:
			tc.Failure = outcomeFromError(res.Error)
		case model.StatusErrored:
			tc.Error = outcomeFromError(res.Error)
		case model.StatusSkipped:
			tc.Skipped = outcomeFromError(res.Error)
		}
		suite.Cases = append(suite.Cases, tc)
	}

	doc := junitTestSuites{Suites: []junitTestSuite{suite}}
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

func outcomeFromError(e *model.ErrorInfo) *junitOutcome {
	if e == nil {
		return &junitOutcome{Message: "unspecified"}
	}
	return &junitOutcome{Message: e.Message, Body: e.Detail}
}

func assertionSummary(assertions []model.AssertionOutcome) string {
	if len(assertions) == 0 {
		return ""
	}
	var out string
	for _, a := range assertions {
		status := "ok"
		if !a.Passed {
			status = "failed: " + a.Message
		}
		out += a.Text + ": " + status + "\n"
	}
	return out
}
