package handler

import (
	"log"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/user/cinedb/internal/utils"
)

// imdbIDPattern IMDb 编号形如 tt0111161 / nm0000001, 新编号可以超过七位
var imdbIDPattern = regexp.MustCompile(`^(tt|nm)[0-9]{7,}$`)

// RegisterValidators 注册自定义校验规则, 进程内执行一次即可
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("imdbid", func(fl validator.FieldLevel) bool {
			return imdbIDPattern.MatchString(fl.Field().String())
		})
	}
}

// ==================== JSON API ====================

type searchQuery struct {
	Q string `form:"q" binding:"required"`
}

// ApiSearch 标题搜索接口
func (h *Handler) ApiSearch(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, "缺少搜索词 q")
		return
	}

	results, err := h.SearchService.Search(c.Request.Context(), q.Q)
	if err != nil {
		log.Printf("[API] 搜索失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}

	utils.Success(c, results)
}

type movieURI struct {
	ID string `uri:"id" binding:"required,imdbid"`
}

// ApiMovie 影片详情接口
func (h *Handler) ApiMovie(c *gin.Context) {
	var u movieURI
	if err := c.ShouldBindUri(&u); err != nil {
		utils.BadRequest(c, "无效的影片编号")
		return
	}

	detail, err := h.SearchService.Detail(c.Request.Context(), u.ID)
	if err != nil {
		log.Printf("[API] 获取详情失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}
	if detail == nil {
		utils.NotFound(c, "影片不存在")
		return
	}

	utils.Success(c, detail)
}
