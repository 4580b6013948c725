package main

import (
	"errors"
	"io"
	"net/http"
	"time"

	"svsboard/models"
	"svsboard/pkg/confirm"
	"svsboard/pkg/ocr"
	"svsboard/pkg/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// maxUploadBytes caps a single screenshot upload.
const maxUploadBytes = 10 << 20

func setupRoutes(r *gin.Engine, p *pipeline.Pipeline) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/submissions", submitHandler(p))
	authGroup.POST("/submissions/:id/actions", actionHandler(p))
	authGroup.POST("/name-changes", nameChangeHandler(p))
	authGroup.GET("/profile", getProfileHandler(p))
	authGroup.GET("/records", listRecordsHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		c.Set("username", username)
		c.Next()
	}
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "registered"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	claims := jwt.MapClaims{
		"username": user.Username,
		"exp":      time.Now().Add(12 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token signing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": signed})
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string)})
}

// submitHandler runs one screenshot through the pipeline. The caller is the
// chat front-end acting on behalf of a submitter.
func submitHandler(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		submitterID := c.PostForm("submitter_id")
		communityID := c.PostForm("community_id")
		if submitterID == "" || communityID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "submitter_id and community_id are required"})
			return
		}
		fh, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}
		if fh.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
			return
		}

		out, err := p.Process(c.Request.Context(), pipeline.RawSubmission{
			SubmitterID: submitterID,
			CommunityID: communityID,
			Image:       data,
			ReceivedAt:  time.Now(),
		})
		switch {
		case errors.Is(err, ocr.ErrInvalidImage):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid image"})
			return
		case errors.Is(err, ocr.ErrNoOCRBackend):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no ocr backend available"})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp := gin.H{
			"submission_id": out.SubmissionID,
			"state":         out.State.String(),
		}
		if out.Payload != nil {
			resp["payload"] = out.Payload
		}
		if out.NameChange != nil {
			resp["name_change"] = out.NameChange
		}
		c.JSON(http.StatusOK, resp)
	}
}

// actionHandler drives the confirmation state machine for a pending
// submission.
func actionHandler(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var req struct {
			Action    string            `json:"action" binding:"required"`
			Overrides map[string]string `json:"overrides"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		out, err := p.Resolve(id, req.Action, req.Overrides)
		switch {
		case errors.Is(err, confirm.ErrUnknownSubmission):
			c.JSON(http.StatusNotFound, gin.H{"error": "submission not found or already resolved"})
			return
		case errors.Is(err, confirm.ErrBadAction):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported action"})
			return
		case err != nil:
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"submission_id": out.SubmissionID,
			"state":         out.State.String(),
		})
	}
}

// nameChangeHandler resolves the separate rename prompt.
func nameChangeHandler(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			SubmitterID string `json:"submitter_id" binding:"required"`
			NewName     string `json:"new_name" binding:"required"`
			Confirmed   bool   `json:"confirmed"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !req.Confirmed {
			c.JSON(http.StatusOK, gin.H{"status": "kept existing name"})
			return
		}
		if err := p.ConfirmNameChange(req.SubmitterID, req.NewName); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "name updated and locked"})
	}
}

func getProfileHandler(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		submitterID := c.Query("submitter_id")
		if submitterID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "submitter_id is required"})
			return
		}
		profile, err := p.Profiles().Get(submitterID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if profile == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no profile yet"})
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

func listRecordsHandler(c *gin.Context) {
	submitterID := c.Query("submitter_id")
	if submitterID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "submitter_id is required"})
		return
	}
	var records []models.ScoreRecord
	if err := db.Where("submitter_id = ?", submitterID).
		Order("created_at desc").Limit(50).Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, records)
}
