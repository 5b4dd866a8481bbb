package llm

import (
	"fmt"
	"strings"

	"github.com/abdulachik/postcraft/internal/segmenter"
)

// analysisPrompt is the instruction sent ahead of the numbered segments.
// Arguments: text type, style hint, text type.
const analysisPrompt = `你是小红书内容创作专家，请将以下%s类型的长文本进行智能分析和视觉化处理。

文本类型说明：
- narrative（叙事类）：关注故事发展、场景转换、人物情感
- argumentative（议论类）：关注论点逻辑、观点对比、论证过程
- descriptive（说明类）：关注对象特征、功能介绍、操作步骤

任务要求：
1. 【内容分析】为每个已分段的内容提供精准的主题摘要
2. 【视觉化转换】为每段生成小红书爆款风格的图片描述，必须遵循以下结构：

   **Prompt结构："小红书爆款配图 + 核心场景 + 主体元素 + 动作/状态 + 氛围色调 + 风格细节"**

   **示例模板：**
   - 叙事类："小红书爆款配图，[具体场景]，[人物/主体][服饰/特征]，[动作/表情]，[情感氛围]，[色调描述]，竖版构图，背景虚化，留白20%%，画面柔和"
   - 议论类："小红书爆款配图，[概念场景]，[象征元素]，[对比/层次]，[理性氛围]，[简洁色调]，现代简约风格，竖版构图，重点突出"
   - 说明类："小红书爆款配图，[产品/对象场景]，[核心特征展示]，[功能体现]，[清晰明亮氛围]，[干净色调]，产品摄影风格，竖版构图"

3. 【风格要求】
   - 竖版比例（3:4或9:16），符合小红书浏览习惯
   - 清新治愈滤镜，画面柔和不刺眼
   - 构图留白20%%，主体突出
   - 背景适度虚化，增强焦点
   - 色调温暖或清新，避免过于浓烈

4. 【输出格式】严格按照JSON数组格式返回，每个对象包含：
   - id: 段落编号
   - content: 段落原文内容
   - summary: 内容主题摘要（20字以内）
   - image_prompt: 小红书风格图片描述（按上述结构生成）

指定风格融合：%s
文本类型：%s

待分析的分段内容：`

const analysisSuffix = "\n\n请返回JSON数组格式的分析结果，确保每个image_prompt都能让人清晰想象出具体的小红书风格画面。"

// BuildPrompt renders the analysis request for the given chunks.
func BuildPrompt(textType segmenter.TextType, style string, chunks []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(analysisPrompt, textType, style, textType))
	for i, chunk := range chunks {
		b.WriteString(fmt.Sprintf("\n\n【第%d段】\n%s", i+1, chunk))
	}
	b.WriteString(analysisSuffix)
	return b.String()
}
