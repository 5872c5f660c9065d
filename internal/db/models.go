package db

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"thirdcoast.systems/lessonstream/pkg/utils/passwords"
)

type UserRole string

const (
	UserRoleStudent    UserRole = "student"
	UserRoleInstructor UserRole = "instructor"
	UserRoleAdmin      UserRole = "admin"
)

func (e *UserRole) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = UserRole(s)
	case string:
		*e = UserRole(s)
	default:
		return fmt.Errorf("unsupported scan type for UserRole: %T", src)
	}
	return nil
}

type VideoStatus string

const (
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusReady      VideoStatus = "ready"
	VideoStatusError      VideoStatus = "error"
)

func (e *VideoStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = VideoStatus(s)
	case string:
		*e = VideoStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for VideoStatus: %T", src)
	}
	return nil
}

type User struct {
	ID        pgtype.UUID        `json:"id"`
	UserName  string             `json:"user_name"`
	Email     string             `json:"email"`
	Password  passwords.Password `json:"password"`
	Role      UserRole           `json:"role"`
	Enabled   bool               `json:"enabled"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type Course struct {
	ID          pgtype.UUID        `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	ImageUrl    string             `json:"image_url"`
	Active      bool               `json:"active"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

type VideoAsset struct {
	ID               pgtype.UUID        `json:"id"`
	CourseID         pgtype.UUID        `json:"course_id"`
	Title            string             `json:"title"`
	Description      pgtype.Text        `json:"description"`
	Duration         int32              `json:"duration"`
	OriginalFilename string             `json:"original_filename"`
	FilePath         string             `json:"file_path"`
	ThumbnailPath    pgtype.Text        `json:"thumbnail_path"`
	ManifestPath     pgtype.Text        `json:"manifest_path"`
	Status           VideoStatus        `json:"status"`
	SortOrder        int32              `json:"sort_order"`
	Active           bool               `json:"active"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
}

type VideoProgress struct {
	ID           pgtype.UUID        `json:"id"`
	UserID       pgtype.UUID        `json:"user_id"`
	VideoID      pgtype.UUID        `json:"video_id"`
	Progress     float64            `json:"progress"`
	LastPosition int32              `json:"last_position"`
	Completed    bool               `json:"completed"`
	CompletedAt  pgtype.Timestamptz `json:"completed_at"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
	UpdatedAt    pgtype.Timestamptz `json:"updated_at"`
}

type VideoChapter struct {
	ID          pgtype.UUID        `json:"id"`
	VideoID     pgtype.UUID        `json:"video_id"`
	Title       string             `json:"title"`
	Description pgtype.Text        `json:"description"`
	StartTime   int32              `json:"start_time"`
	SortOrder   int32              `json:"sort_order"`
	Active      bool               `json:"active"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}
