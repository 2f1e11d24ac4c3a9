package controllers

import (
	"net/http"

	"Gin_postgres_redis_tool_lending/app"
	"Gin_postgres_redis_tool_lending/db"

	"github.com/gin-gonic/gin"
)

type BorrowerController struct{ *Srv }

func NewBorrowerController(s *Srv) *BorrowerController { return &BorrowerController{Srv: s} }

type borrowerReq struct {
	Name      string `json:"name" binding:"required,max=200"`
	StudentID string `json:"studentId" binding:"max=50"`
	Career    string `json:"career" binding:"max=120"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone" binding:"max=40"`
}

func (in borrowerReq) toDB() db.BorrowerInput {
	return db.BorrowerInput{
		Name:      in.Name,
		StudentID: in.StudentID,
		Career:    in.Career,
		Email:     in.Email,
		Phone:     in.Phone,
	}
}

type borrowersQuery struct {
	Q      string `form:"q" binding:"max=100"`
	Career string `form:"career"`
	Page   int    `form:"page" binding:"min=0"`
	Size   int    `form:"size" binding:"min=0,max=200"`
}

// GET /api/borrowers?q=&career=&page=&size=
func (bc *BorrowerController) List(c *gin.Context) {
	var q borrowersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	res, err := bc.Repo.ListBorrowers(c.Request.Context(), db.BorrowersQuery{
		Q: q.Q, Career: q.Career, Page: q.Page, Size: q.Size,
	})
	if err != nil {
		respondError(c, bc.Log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/borrowers/careers
func (bc *BorrowerController) Careers(c *gin.Context) {
	out, err := bc.Repo.ListCareers(c.Request.Context())
	if err != nil {
		respondError(c, bc.Log, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"careers": out})
}

func (bc *BorrowerController) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := bc.Repo.FindBorrowerByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, bc.Log, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (bc *BorrowerController) Create(c *gin.Context) {
	var in borrowerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	b, err := bc.Repo.CreateBorrower(c.Request.Context(), in.toDB())
	if err != nil {
		respondError(c, bc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (bc *BorrowerController) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in borrowerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	b, err := bc.Repo.UpdateBorrower(c.Request.Context(), id, in.toDB())
	if err != nil {
		respondError(c, bc.Log, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DELETE /api/borrowers/:id
// 有未归还借用时拒绝删除
func (bc *BorrowerController) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sess, ok := actor(c)
	if !ok {
		return
	}
	if err := bc.Repo.DeleteBorrower(c.Request.Context(), id, sess.Actor()); err != nil {
		respondError(c, bc.Log, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
