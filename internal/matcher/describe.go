package matcher

import "strings"

// Description is a coarse reading of an image prompt.
type Description struct {
	SceneType       string   `json:"scene_type"`
	DominantEmotion string   `json:"dominant_emotion"`
	VisualElements  []string `json:"visual_elements"`
}

const (
	generalScene   = "general"
	neutralEmotion = "neutral"
)

var sceneKeywords = []struct {
	Scene    string
	Keywords []string
}{
	{"nature_mountain", []string{"山", "山峰", "山脉", "高山", "雪山", "峰峦", "登山", "徒步"}},
	{"nature_ocean", []string{"海", "海洋", "海滩", "海岸", "波浪", "海水", "沙滩", "海边"}},
	{"nature_forest", []string{"森林", "树林", "树木", "绿色", "叶子", "植物", "自然"}},
	{"nature_flower", []string{"花", "花朵", "花园", "鲜花", "花瓣", "盛开", "绽放"}},
	{"nature_sky", []string{"天空", "云", "云朵", "蓝天", "白云", "晴空", "天际"}},
	{"city_modern", []string{"城市", "建筑", "高楼", "现代", "都市", "摩天大楼"}},
	{"city_street", []string{"街道", "马路", "街景", "商店", "行人", "车辆"}},
	{"lifestyle_food", []string{"食物", "美食", "餐厅", "菜品", "料理", "烹饪"}},
	{"lifestyle_travel", []string{"旅行", "旅游", "景点", "度假", "探索", "冒险"}},
	{"lifestyle_fashion", []string{"时尚", "服装", "穿搭", "风格", "潮流", "搭配"}},
	{"animal_pet", []string{"宠物", "猫", "狗", "动物", "可爱", "毛茸茸"}},
	{"animal_bird", []string{"鸟", "小鸟", "飞鸟", "翅膀", "飞翔", "羽毛"}},
	{"animal_wild", []string{"野生动物", "兔子", "松鼠", "蝴蝶", "昆虫", "野生"}},
}

var emotionKeywords = []struct {
	Emotion  string
	Keywords []string
}{
	{"温暖", []string{"温暖", "温馨", "舒适", "柔和", "亲切"}},
	{"宁静", []string{"宁静", "安静", "平静", "祥和", "静谧"}},
	{"活力", []string{"活力", "生机", "充满", "活跃", "动感"}},
	{"浪漫", []string{"浪漫", "唯美", "梦幻", "美丽", "优雅"}},
	{"神秘", []string{"神秘", "深邃", "朦胧", "幽深", "隐秘"}},
	{"壮观", []string{"壮观", "雄伟", "壮丽", "震撼", "宏伟"}},
}

var elementKeywords = []string{"颜色", "光线", "阴影", "纹理", "形状", "线条", "构图", "透视", "对比", "明暗"}

// Describe extracts the scene type, dominant emotion and visual elements
// mentioned in prompt. The first matching scene and emotion win.
func Describe(prompt string) Description {
	p := strings.ToLower(prompt)

	d := Description{
		SceneType:       generalScene,
		DominantEmotion: neutralEmotion,
	}

	for _, s := range sceneKeywords {
		if containsAny(p, s.Keywords) {
			d.SceneType = s.Scene
			break
		}
	}

	for _, e := range emotionKeywords {
		if containsAny(p, e.Keywords) {
			d.DominantEmotion = e.Emotion
			break
		}
	}

	for _, el := range elementKeywords {
		if strings.Contains(p, el) {
			d.VisualElements = append(d.VisualElements, el)
		}
	}

	return d
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
