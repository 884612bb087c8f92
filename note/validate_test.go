package note

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/xhsnote/models"
)

func emptyRecord() *models.Record {
	return &models.Record{
		Title:  models.DefaultTitle,
		Author: models.DefaultAuthor,
		Images: []string{},
		Tags:   []string{},
	}
}

func TestValidate_EmptyRecordFails(t *testing.T) {
	out := Validate(emptyRecord(), "")
	assert.False(t, out.OK())
	assert.Nil(t, out.Record)
	assert.Equal(t, EmptyResultMessage, out.Reason)
}

func TestValidate_NilFails(t *testing.T) {
	assert.False(t, Validate(nil, "").OK())
}

func TestValidate_TitleAloneSucceeds(t *testing.T) {
	rec := emptyRecord()
	rec.Title = "Weekend in Dali"
	out := Validate(rec, "")
	assert.True(t, out.OK())
	assert.Same(t, rec, out.Record)
	assert.Equal(t, "", out.Record.Content)
}

func TestValidate_ContentAloneSucceeds(t *testing.T) {
	rec := emptyRecord()
	rec.Content = "body text"
	assert.True(t, Validate(rec, "").OK())
}

func TestValidate_OtherFieldsDoNotCount(t *testing.T) {
	rec := emptyRecord()
	rec.Author = "someone"
	rec.Likes = 99
	rec.Images = []string{"https://sns-webpic-qc.xhscdn.com/1.jpg"}
	rec.Tags = []string{"#travel"}
	assert.False(t, Validate(rec, "").OK())
}

func TestValidate_CustomPlaceholder(t *testing.T) {
	rec := emptyRecord()
	rec.Title = "未命名笔记"
	assert.False(t, Validate(rec, "未命名笔记").OK())

	// The built-in placeholder is a real title once another one is configured.
	rec.Title = models.DefaultTitle
	assert.True(t, Validate(rec, "未命名笔记").OK())
}

func TestEmptyResultMessage_ListsCauses(t *testing.T) {
	assert.Contains(t, EmptyResultMessage, "logged-in")
	assert.Contains(t, EmptyResultMessage, "structure has changed")
	assert.Contains(t, EmptyResultMessage, "invalid")
	assert.Contains(t, EmptyResultMessage, "manual entry")
}
