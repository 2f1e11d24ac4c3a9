// controllers/item_controller.go
package controllers

import (
	"net/http"

	"Gin_postgres_redis_tool_lending/app"
	"Gin_postgres_redis_tool_lending/db"
	"Gin_postgres_redis_tool_lending/models"

	"github.com/gin-gonic/gin"
)

type ItemController struct{ *Srv }

func NewItemController(s *Srv) *ItemController { return &ItemController{Srv: s} }

type itemReq struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=1000"`
	Category    string `json:"category" binding:"max=100"`
}

func (in itemReq) toDB() db.ItemInput {
	return db.ItemInput{Name: in.Name, Description: in.Description, Category: in.Category}
}

type itemsQuery struct {
	Q            string `form:"q" binding:"max=100"`
	Category     string `form:"category"`
	Availability string `form:"availability" binding:"omitempty,oneof=all available loaned"`
	Page         int    `form:"page" binding:"min=0"`
	Size         int    `form:"size" binding:"min=0,max=200"`
}

// GET /api/items?q=&category=&availability=&page=&size=
func (ic *ItemController) List(c *gin.Context) {
	var q itemsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	res, err := ic.Repo.ListItems(c.Request.Context(), db.ItemsQuery{
		Q:            q.Q,
		Category:     q.Category,
		Availability: q.Availability,
		Page:         q.Page,
		Size:         q.Size,
	})
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/items/categories
func (ic *ItemController) Categories(c *gin.Context) {
	cats, err := ic.Repo.ListItemCategories(c.Request.Context())
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"categories": cats})
}

// GET /api/items/:id
func (ic *ItemController) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	it, err := ic.Repo.FindItemByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// GET /api/items/:id/qr
// 返回二维码内容，前端自行渲染
func (ic *ItemController) QR(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	it, err := ic.Repo.FindItemByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	qr, err := models.ParseQRPayload(it.QRPayload)
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"payload": it.QRPayload, "qr": qr})
}

// POST /api/items
func (ic *ItemController) Create(c *gin.Context) {
	var in itemReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	it, err := ic.Repo.CreateItem(c.Request.Context(), in.toDB())
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

// PUT /api/items/:id
func (ic *ItemController) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in itemReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	it, err := ic.Repo.UpdateItem(c.Request.Context(), id, in.toDB())
	if err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// DELETE /api/items/:id
func (ic *ItemController) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sess, ok := actor(c)
	if !ok {
		return
	}
	if err := ic.Repo.DeleteItem(c.Request.Context(), id, sess.Actor()); err != nil {
		respondError(c, ic.Log, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
