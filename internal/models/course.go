package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
)

func (s CourseStatus) IsValid() bool {
	return s == CourseDraft || s == CoursePublished
}

type Video struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	Description     string `json:"description,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

type Section struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Videos []Video `json:"videos"`
}

type Course struct {
	ID             string       `json:"id" gorm:"primaryKey;size:36"`
	Title          string       `json:"title" gorm:"not null;size:200;index"`
	Description    string       `json:"description" gorm:"type:text"`
	Category       string       `json:"category" gorm:"size:100;index"`
	Price          float64      `json:"price" gorm:"type:numeric(10,2);not null;default:0"`
	Status         CourseStatus `json:"status" gorm:"not null;size:20;default:draft;index"`
	InstructorID   string       `json:"instructor_id" gorm:"not null;size:255;index"`
	InstructorName string       `json:"instructor_name" gorm:"size:100"`
	Thumbnail      string       `json:"thumbnail" gorm:"size:500"`

	// Ordered outline, stored as JSONB
	Sections datatypes.JSONSlice[Section] `json:"sections" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Computed fields (not stored)
	DescriptionHTML string `json:"description_html,omitempty" gorm:"-"`
	EnrollmentCount int64  `json:"enrollment_count,omitempty" gorm:"-"`
}

func (Course) TableName() string {
	return "courses"
}

// BeforeSave gives every section and video a stable id
func (c *Course) BeforeSave(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.AssignIDs()
	return nil
}

// AssignIDs fills in missing section and video ids. Existing ids are kept so that
// reordering the outline does not invalidate recorded progress.
func (c *Course) AssignIDs() {
	for i := range c.Sections {
		if c.Sections[i].ID == "" {
			c.Sections[i].ID = uuid.NewString()
		}
		for j := range c.Sections[i].Videos {
			if c.Sections[i].Videos[j].ID == "" {
				c.Sections[i].Videos[j].ID = uuid.NewString()
			}
		}
	}
}

func (c *Course) TotalVideos() int {
	total := 0
	for _, s := range c.Sections {
		total += len(s.Videos)
	}
	return total
}

// VideoIDs returns the stable ids of every video in outline order
func (c *Course) VideoIDs() []string {
	ids := make([]string, 0, c.TotalVideos())
	for _, s := range c.Sections {
		for _, v := range s.Videos {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// VideoLocation pinpoints a video inside the outline
type VideoLocation struct {
	SectionIndex int    `json:"section_index"`
	VideoIndex   int    `json:"video_index"`
	SectionID    string `json:"section_id"`
	Video        Video  `json:"video"`
}

// CompositeVideoID is the legacy positional key "sectionIndex_videoIndex"
func CompositeVideoID(sectionIndex, videoIndex int) string {
	return fmt.Sprintf("%d_%d", sectionIndex, videoIndex)
}

// VideoByRef resolves either a stable video id or a legacy composite id
func (c *Course) VideoByRef(ref string) (*VideoLocation, bool) {
	for i, s := range c.Sections {
		for j, v := range s.Videos {
			if v.ID != "" && v.ID == ref {
				return &VideoLocation{SectionIndex: i, VideoIndex: j, SectionID: s.ID, Video: v}, true
			}
		}
	}

	si, vi, ok := parseCompositeVideoID(ref)
	if !ok || si >= len(c.Sections) || vi >= len(c.Sections[si].Videos) {
		return nil, false
	}
	s := c.Sections[si]
	return &VideoLocation{SectionIndex: si, VideoIndex: vi, SectionID: s.ID, Video: s.Videos[vi]}, true
}

func parseCompositeVideoID(ref string) (int, int, bool) {
	left, right, found := strings.Cut(ref, "_")
	if !found {
		return 0, 0, false
	}
	si, err := strconv.Atoi(left)
	if err != nil || si < 0 {
		return 0, 0, false
	}
	vi, err := strconv.Atoi(right)
	if err != nil || vi < 0 {
		return 0, 0, false
	}
	return si, vi, true
}
