// package video_api provides video-related API handlers.
package video_api

import (
	"time"

	"github.com/google/uuid"
	"thirdcoast.systems/lessonstream/internal/video"
	"thirdcoast.systems/lessonstream/pkg/utils/format"
	"thirdcoast.systems/lessonstream/pkg/utils/markdown"
)

const excerptLength = 160

type assetView struct {
	ID               uuid.UUID    `json:"id"`
	CourseID         uuid.UUID    `json:"courseId"`
	Title            string       `json:"title"`
	Description      *string      `json:"description"`
	DescriptionHTML  string       `json:"descriptionHtml,omitempty"`
	Summary          string       `json:"summary,omitempty"`
	Duration         int          `json:"duration"`
	DurationText     string       `json:"durationText,omitempty"`
	OriginalFilename string       `json:"originalFilename"`
	Status           video.Status `json:"status"`
	SortOrder        int          `json:"sortOrder"`
	ThumbnailURL     string       `json:"thumbnailUrl,omitempty"`
	StreamURL        string       `json:"streamUrl,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// newAssetView shapes an asset for clients. Detail views carry the rendered
// description, list views a plain-text summary.
func newAssetView(a *video.Asset, detail bool) assetView {
	v := assetView{
		ID:               a.ID,
		CourseID:         a.CourseID,
		Title:            a.Title,
		Description:      a.Description,
		Duration:         a.Duration,
		DurationText:     format.Duration(a.Duration),
		OriginalFilename: a.OriginalFilename,
		Status:           a.Status,
		SortOrder:        a.SortOrder,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if a.Description != nil {
		if detail {
			v.DescriptionHTML = markdown.Render(*a.Description)
		} else {
			v.Summary = markdown.Excerpt(*a.Description, excerptLength)
		}
	}
	if a.ThumbnailPath != nil {
		v.ThumbnailURL = "/api/videos/" + a.ID.String() + "/thumbnail"
	}
	if a.Status == video.StatusReady {
		v.StreamURL = "/api/videos/" + a.ID.String() + "/stream"
	}
	return v
}

func newAssetViews(assets []*video.Asset) []assetView {
	out := make([]assetView, len(assets))
	for i, a := range assets {
		out[i] = newAssetView(a, false)
	}
	return out
}
