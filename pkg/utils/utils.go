package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"net/http"
	"regexp"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/holdno/snowFlakeByGo"

	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/i18n"
)

var (
	// idWorker 全局唯一id生成器实例
	idWorker *snowFlakeByGo.Worker
)

func SetupIDWorker(clusterID int64) {
	idWorker, _ = snowFlakeByGo.NewWorker(clusterID)
}

func GenUniqID() int64 {
	return idWorker.GetId()
}

func GenUniqIDStr() string {
	return strconv.FormatInt(GenUniqID(), 10)
}

const randomSeed = "1234567890qwertyuiopasdfghjklzxcvbnmQWERTYUIOPASDFGHJKLZXCVBNM"

// RandomStr returns l characters from a crypto random source.
func RandomStr(l int) string {
	out := make([]byte, l)
	max := big.NewInt(int64(len(randomSeed)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(int64(mrand.Intn(len(randomSeed))))
		}
		out[i] = randomSeed[n.Int64()]
	}
	return string(out)
}

// Random returns a number in [min, max].
func Random(min, max int) int {
	if min >= max {
		return max
	}
	return min + mrand.Intn(max-min+1)
}

func BindArgsWithGin(c *gin.Context, req interface{}) error {
	err := c.ShouldBindWith(req, binding.Default(c.Request.Method, c.ContentType()))
	if err != nil {
		return errors.New(fmt.Sprintf("Gin.ShouldBindWith.%s.%s", c.Request.Method, c.Request.URL.Path), i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest)
	}
	return nil
}

// Language represents a language and its weight (priority)
type Language struct {
	Tag    string  // Language tag, e.g., "en-US"
	Weight float64 // Weight (priority), default is 1.0
}

var acceptLanguagePattern = regexp.MustCompile(`([a-zA-Z\-]+)(?:;q=([0-9\.]+))?`)

// ParseAcceptLanguage parses the Accept-Language header and returns a sorted list of languages by weight.
func ParseAcceptLanguage(header string) []Language {
	if header == "" {
		return []Language{}
	}

	var languages []Language
	for _, match := range acceptLanguagePattern.FindAllStringSubmatch(header, -1) {
		weight := 1.0
		if len(match) > 2 && match[2] != "" {
			if parsed, err := strconv.ParseFloat(match[2], 64); err == nil {
				weight = parsed
			}
		}
		languages = append(languages, Language{Tag: match[1], Weight: weight})
	}

	sort.SliceStable(languages, func(i, j int) bool {
		return languages[i].Weight > languages[j].Weight
	})
	return languages
}

// MaskString keeps preLen leading and postLen trailing runes of s and masks the rest.
func MaskString(s string, preLen, postLen int) string {
	runes := []rune(s)
	if len(runes) <= preLen+postLen {
		return s
	}
	masked := make([]rune, 0, len(runes))
	masked = append(masked, runes[:preLen]...)
	for i := preLen; i < len(runes)-postLen; i++ {
		masked = append(masked, '*')
	}
	return string(append(masked, runes[len(runes)-postLen:]...))
}
