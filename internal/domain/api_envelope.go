package domain

// Общий конверт ответа: каждый ответ несёт success,
// ошибки — message либо errors со списком полей.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Pagination struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

type APIEnvelope struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
	Count      *int         `json:"count,omitempty"`
	Pagination *Pagination  `json:"pagination,omitempty"`
	Data       any          `json:"data,omitempty"`
	FromCache  bool         `json:"fromCache,omitempty"`
}

// Утилиты для сборки конвертов
func OkData(data any) APIEnvelope { return APIEnvelope{Success: true, Data: data} }

func OkMessage(msg string) APIEnvelope { return APIEnvelope{Success: true, Message: msg} }

func OkList(data any, count int, p Pagination) APIEnvelope {
	return APIEnvelope{Success: true, Count: &count, Pagination: &p, Data: data}
}

func Fail(msg string) APIEnvelope { return APIEnvelope{Success: false, Message: msg} }

func FailFields(errs []FieldError) APIEnvelope {
	return APIEnvelope{Success: false, Errors: errs}
}

// Считает метаданные пагинации по total/page/limit
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1 && total > 0,
	}
}
