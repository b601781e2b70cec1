package util

import (
	"Hermes/internal/model"
	"Hermes/internal/pkg/consts"
	"fmt"
	"regexp"
	"strings"
)

var linkRegex = regexp.MustCompile(`https?://\S+`)

// ExtractLinks 提取文本中去重后的链接列表
func ExtractLinks(rawContent string) []string {
	matches := linkRegex.FindAllString(rawContent, -1)

	linkSet := make(map[string]struct{})
	var links []string

	for _, m := range matches {
		link := strings.Trim(m, ".,，。!?！？)）")

		if link != "" {
			if _, exists := linkSet[link]; !exists {
				linkSet[link] = struct{}{}
				links = append(links, link)
			}
		}
	}

	return links
}

// PreviewText 生成会话列表的摘要文本，纯附件消息渲染为占位符
func PreviewText(m *model.Message, maxLen int) string {
	if m == nil {
		return ""
	}
	if m.Text != "" {
		return truncateRunes(m.Text, maxLen)
	}
	if len(m.Attachments) == 0 {
		return ""
	}

	images := 0
	for _, a := range m.Attachments {
		if a != nil && a.Type == consts.AttachmentTypeImage {
			images++
		}
	}
	if images == len(m.Attachments) {
		if images == 1 {
			return "[图片]"
		}
		return fmt.Sprintf("[图片] x%d", images)
	}
	if len(m.Attachments) == 1 {
		return "[文件]"
	}
	return fmt.Sprintf("[文件] x%d", len(m.Attachments))
}

func truncateRunes(text string, maxLen int) string {
	if maxLen <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "…"
}
