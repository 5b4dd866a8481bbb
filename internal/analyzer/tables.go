package analyzer

// category is a named keyword bucket. Slices of categories are ordered;
// earlier entries win ties.
type category struct {
	Name     string
	Keywords []string
}

var themeTable = []category{
	{"自然风光", []string{"山", "海", "湖", "河", "森林", "树", "花", "草", "天空", "云", "阳光", "月亮", "星星", "雨", "雪", "风景", "自然", "户外"}},
	{"都市生活", []string{"城市", "街道", "建筑", "高楼", "商店", "咖啡厅", "餐厅", "办公室", "地铁", "公交", "车", "马路", "灯光", "夜景"}},
	{"人物情感", []string{"人", "女孩", "男孩", "朋友", "家人", "恋人", "孩子", "老人", "微笑", "拥抱", "眼神", "表情", "手势"}},
	{"学习工作", []string{"学习", "工作", "书", "笔", "电脑", "手机", "办公", "会议", "思考", "写作", "阅读", "研究", "项目"}},
	{"美食生活", []string{"食物", "美食", "咖啡", "茶", "蛋糕", "面包", "水果", "蔬菜", "料理", "烹饪", "餐具", "厨房", "味道"}},
	{"旅行探索", []string{"旅行", "旅游", "探索", "冒险", "路", "地图", "背包", "相机", "景点", "文化", "体验", "发现"}},
	{"艺术创作", []string{"艺术", "画", "音乐", "创作", "设计", "色彩", "线条", "构图", "灵感", "美感", "创意", "表达"}},
	{"运动健康", []string{"运动", "健身", "跑步", "游泳", "瑜伽", "健康", "活力", "汗水", "坚持", "挑战", "目标", "成就"}},
}

var emotionTable = []category{
	{"温暖治愈", []string{"温暖", "治愈", "舒适", "安心", "放松", "宁静", "平和", "柔和", "温馨", "甜蜜"}},
	{"活力阳光", []string{"活力", "阳光", "开心", "快乐", "兴奋", "充满", "生机", "活跃", "明亮", "积极"}},
	{"深沉思考", []string{"思考", "深沉", "沉思", "理性", "智慧", "哲学", "内省", "冥想", "专注", "严肃"}},
	{"浪漫唯美", []string{"浪漫", "唯美", "梦幻", "美丽", "优雅", "诗意", "柔美", "迷人", "动人", "醉人"}},
	{"忧郁深邃", []string{"忧郁", "深邃", "孤独", "思念", "怀念", "伤感", "惆怅", "沉重", "复杂", "细腻"}},
}

var settingTable = []category{
	{"室内", []string{"房间", "家", "客厅", "卧室", "厨房", "书房", "办公室", "教室", "图书馆", "咖啡厅", "餐厅"}},
	{"室外", []string{"公园", "街道", "广场", "海边", "山上", "森林", "花园", "阳台", "天台", "操场", "田野"}},
	{"特殊场所", []string{"学校", "医院", "商场", "机场", "车站", "博物馆", "剧院", "体育馆", "工厂", "农场"}},
}

var timeTable = []struct {
	Time     TimeOfDay
	Keywords []string
}{
	{Morning, []string{"早晨", "清晨", "黎明", "日出", "晨光", "朝阳"}},
	{Day, []string{"白天", "中午", "下午", "阳光", "明亮", "日光"}},
	{Evening, []string{"傍晚", "黄昏", "夕阳", "日落", "余晖", "暮色"}},
	{Night, []string{"夜晚", "深夜", "月光", "星光", "灯火", "夜色"}},
}

var colorWords = []string{"红", "橙", "黄", "绿", "蓝", "紫", "粉", "白", "黑", "灰", "金", "银", "彩色", "鲜艳", "柔和", "明亮", "暗淡"}

var atmosphereWords = []string{"温馨", "清新", "自然", "现代", "时尚", "简约", "优雅", "活力", "宁静", "明亮", "柔和"}

// atmosphereInference is consulted in order when no atmosphere word is present.
var atmosphereInference = []struct {
	Triggers   []string
	Atmosphere string
}{
	{[]string{"学习", "工作", "办公"}, "简约"},
	{[]string{"自然", "户外", "风景"}, "清新"},
	{[]string{"家", "温暖", "舒适"}, "温馨"},
}

const defaultAtmosphere = "自然"

var feelingWords = []string{"快乐", "愉悦", "温暖", "舒适", "宁静", "激动", "感动", "美好", "幸福", "满足"}
