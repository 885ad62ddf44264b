package report

import (
	"gopkg.in/yaml.v3"

	"github.com/tast-lang/tast/internal/model"
)

// WritePlanYAML serialises plan as YAML, per the documented wire schema.
func WritePlanYAML(plan *model.Plan) ([]byte, error) {
	return yaml.Marshal(plan)
}

// WriteRunReportYAML serialises report as YAML.
func WriteRunReportYAML(report *model.RunReport) ([]byte, error) {
	return yaml.Marshal(report)
}

// ReadPlanYAML parses a YAML-encoded plan, the inverse of WritePlanYAML.
func ReadPlanYAML(data []byte) (*model.Plan, error) {
	var plan model.Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}
