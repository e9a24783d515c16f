package models

import "time"

// Course упорядоченный набор лекций.
// После загрузки лекций NumberOfLectures всегда равно len(Lectures),
// поэтому лекции меняются только через AddLecture и RemoveLecture.
type Course struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	CreatedBy        string    `json:"createdBy"`
	Thumbnail        Media     `json:"thumbnail"`
	Lectures         []Lecture `json:"lectures,omitempty"`
	NumberOfLectures int       `json:"numberOfLectures"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Lecture принадлежит ровно одному курсу.
type Lecture struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Video       Media     `json:"lecture"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AddLecture добавляет лекцию в конец и обновляет счетчик.
func (c *Course) AddLecture(l Lecture) {
	l.CourseID = c.ID
	c.Lectures = append(c.Lectures, l)
	c.NumberOfLectures = len(c.Lectures)
}

// RemoveLecture удаляет лекцию с указанным id, сохраняя порядок остальных.
// Возвращает удаленную лекцию или false, если такой нет.
func (c *Course) RemoveLecture(id string) (Lecture, bool) {
	for i, l := range c.Lectures {
		if l.ID != id {
			continue
		}
		c.Lectures = append(c.Lectures[:i:i], c.Lectures[i+1:]...)
		c.NumberOfLectures = len(c.Lectures)
		return l, true
	}
	return Lecture{}, false
}

// Lecture возвращает лекцию по id.
func (c *Course) Lecture(id string) (Lecture, bool) {
	for _, l := range c.Lectures {
		if l.ID == id {
			return l, true
		}
	}
	return Lecture{}, false
}

// CourseUpdate поля курса для изменения, nil означает без изменений.
type CourseUpdate struct {
	Title       *string
	Description *string
	Category    *string
	CreatedBy   *string
}

// Empty сообщает, что обновление ничего не меняет.
func (u CourseUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil && u.CreatedBy == nil
}

// Apply переносит заданные поля в c.
func (u CourseUpdate) Apply(c *Course) {
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Category != nil {
		c.Category = *u.Category
	}
	if u.CreatedBy != nil {
		c.CreatedBy = *u.CreatedBy
	}
}
