package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

type ReclassifyInput struct {
	SerialID int64
	To       model.SerialStatus
	Reason   string
}
