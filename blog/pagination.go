package blog

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const PostsPerPage = 10

type Page struct {
	Number     int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	Offset     int
}

// paginate clamps a requested page number into the valid range instead
// of erroring on out-of-range values.
func paginate(total int64, requested int) Page {
	totalPages := int((total + PostsPerPage - 1) / PostsPerPage)
	if totalPages < 1 {
		totalPages = 1
	}

	number := requested
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}

	return Page{
		Number:     number,
		TotalPages: totalPages,
		HasPrev:    number > 1,
		HasNext:    number < totalPages,
		Offset:     (number - 1) * PostsPerPage,
	}
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		return 1
	}
	return page
}
