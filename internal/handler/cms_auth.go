package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// CMSPasswordHeader 携带 CMS 共享密码的请求头
const CMSPasswordHeader = "X-CMS-Password"

const sessionAdminKey = "cms_admin"

// CMSAuthRequired 校验 CMS 请求：优先检查密码请求头，其次检查已登录会话
func (a *API) CMSAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		password := strings.TrimSpace(c.GetHeader(CMSPasswordHeader))
		if password == "" {
			session := sessions.Default(c)
			if admin, ok := session.Get(sessionAdminKey).(bool); ok && admin {
				c.Next()
				return
			}
			respondError(c, http.StatusUnauthorized, "缺少 CMS 访问密码")
			c.Abort()
			return
		}

		if !a.verifyCMSPassword(c, password) {
			return
		}
		c.Next()
	}
}

// verifyCMSPassword 比对密码哈希，失败时直接写出响应并中止请求
func (a *API) verifyCMSPassword(c *gin.Context, password string) bool {
	if strings.TrimSpace(a.adminHash) == "" {
		respondError(c, http.StatusInternalServerError, "未配置管理密码")
		c.Abort()
		return false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.adminHash), []byte(password)); err != nil {
		respondError(c, http.StatusUnauthorized, "CMS 访问密码错误")
		c.Abort()
		return false
	}
	return true
}

type loginPayload struct {
	Password string `json:"password"`
}

// CMSLogin 为浏览器端 CMS 建立会话
func (a *API) CMSLogin(c *gin.Context) {
	var payload loginPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	if !a.verifyCMSPassword(c, strings.TrimSpace(payload.Password)) {
		return
	}

	session := sessions.Default(c)
	session.Set(sessionAdminKey, true)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "登录成功"})
}

// CMSLogout 清除会话
func (a *API) CMSLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"message": "已退出登录"})
}
