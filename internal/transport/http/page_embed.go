package dashhttp

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*
var pageAssets embed.FS

var pageFuncs = template.FuncMap{
	"usd": func(v float64) string {
		if v < 0 {
			return formatUSD(-v, "-$")
		}
		return formatUSD(v, "$")
	},
}

func formatUSD(v float64, prefix string) string {
	return fmt.Sprintf("%s%.2f", prefix, v)
}

func loadTemplates(router *gin.Engine) error {
	tmpl, err := template.New("dashboard").Funcs(pageFuncs).ParseFS(pageAssets, "templates/*.html")
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)
	return nil
}
