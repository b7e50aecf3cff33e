package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/i18n"
	"github.com/tablehub/tablehub/pkg/utils"
)

func serve(t *testing.T, h gin.HandlerFunc) (int, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetupIDWorker(1)

	r := gin.New()
	r.Use(ProvideResponseLocalizer(i18n.NewLocalizer("en")), NewResponse())
	r.GET("/", h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var res Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return w.Code, res
}

func TestAPIErrorCustomized(t *testing.T) {
	code, res := serve(t, func(c *gin.Context) {
		err := errors.New("test", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest).
			WithData(map[string]interface{}{"detail": "unknown column"})
		APIError(c, fmt.Errorf("wrapped: %w", err))
	})

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, http.StatusBadRequest, res.Meta.Code)
	assert.Equal(t, map[string]interface{}{"detail": "unknown column"}, res.Data)
}

func TestAPIErrorPlain(t *testing.T) {
	code, res := serve(t, func(c *gin.Context) {
		APIError(c, fmt.Errorf("boom"))
	})

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "boom", res.Meta.Message)
}

func TestAPISuccess(t *testing.T) {
	code, res := serve(t, func(c *gin.Context) {
		APISuccess(c, ListResponse[string]{List: []string{"employees"}, Total: 1})
	})

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, http.StatusOK, res.Meta.Code)
	assert.NotEmpty(t, res.Meta.RequestID)
	assert.Equal(t, float64(1), res.Data.(map[string]interface{})["total"])
}
