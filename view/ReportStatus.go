package view

import "fmt"

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportDismissed ReportStatus = "dismissed"
	ReportResolved  ReportStatus = "resolved"
)

func (s ReportStatus) String() string {
	return string(s)
}

func ParseReportStatus(s string) (ReportStatus, error) {
	switch ReportStatus(s) {
	case ReportPending, ReportDismissed, ReportResolved:
		return ReportStatus(s), nil
	}
	return "", fmt.Errorf("unknown report status: %v", s)
}
