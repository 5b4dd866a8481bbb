package prompt

import (
	"fmt"
	"strings"

	"github.com/abdulachik/postcraft/internal/segmenter"
)

var summaryKeywords = map[segmenter.TextType][]string{
	segmenter.Narrative:     {"故事", "情节", "人物", "场景", "情感", "经历", "遇到", "发生"},
	segmenter.Argumentative: {"观点", "论证", "分析", "认为", "因为", "所以", "结论"},
	segmenter.Descriptive:   {"介绍", "说明", "特点", "功能", "方法", "原理", "结构"},
}

// Summary builds a short local summary for segment id. It names the first
// genre keyword present in text, if any.
func Summary(text string, id int, textType segmenter.TextType) string {
	keywords, ok := summaryKeywords[textType]
	if !ok {
		keywords = summaryKeywords[segmenter.Descriptive]
	}

	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return fmt.Sprintf("第%d段：%s相关内容", id, kw)
		}
	}
	return fmt.Sprintf("第%d段内容摘要", id)
}
