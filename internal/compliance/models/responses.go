package models

import (
	"staywatch/internal/engine"
	"staywatch/pkg/domain"
)

// StatusResponse is the compliance snapshot returned for one subject.
type StatusResponse struct {
	SubjectID domain.SubjectID `json:"subject_id"`
	engine.WindowResult
}

// ForecastResponse wraps the engine's forecast outcome. When no compliant
// start exists within the horizon, Found is false and SearchedThrough
// tells the caller how far the scan went.
type ForecastResponse struct {
	SubjectID domain.SubjectID `json:"subject_id"`
	StayDays  int              `json:"stay_days"`
	engine.ForecastResult
}

// OverviewResponse carries one snapshot per requested subject, in request
// order.
type OverviewResponse struct {
	ReferenceDate engine.Date     `json:"reference_date"`
	Subjects      []SubjectStatus `json:"subjects"`
}
