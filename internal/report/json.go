package report

import (
	"encoding/json"

	"github.com/tast-lang/tast/internal/model"
)

// WritePlanJSON serialises plan as indented JSON, per the documented wire
// schema.
func WritePlanJSON(plan *model.Plan) ([]byte, error) {
	return json.MarshalIndent(plan, "", "  ")
}

// WriteRunReportJSON serialises report as indented JSON.
func WriteRunReportJSON(report *model.RunReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// ReadPlanJSON parses a JSON-encoded plan, the inverse of WritePlanJSON.
func ReadPlanJSON(data []byte) (*model.Plan, error) {
	var plan model.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}
