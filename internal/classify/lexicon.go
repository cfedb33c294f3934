// Package classify implements keyword-based transaction categorization.
package classify

import "github.com/tallyhq/tally/internal/model"

// Style holds the visual attributes assigned to a category on creation.
type Style struct {
	Icon  string
	Color string
}

// Default visual attributes when the lexicon has no entry for a name.
var (
	defaultStyle        = Style{Icon: "📦", Color: "#10B981"}
	defaultIncomeStyle  = Style{Icon: "💰", Color: "#EF4444"}
	defaultExpenseStyle = Style{Icon: "💸", Color: "#10B981"}
)

// Fallback category names used when no keyword matches a transaction.
const (
	OtherIncomeName  = "其他收入"
	OtherExpenseName = "其他支出"
)

// commonCategories are the expense categories the classifier guarantees to
// exist after a run, mirroring the set seeded by bill imports.
var commonCategories = []string{
	"餐饮", "交通", "购物", "娱乐", "医疗", "教育", "住房", "生活缴费",
}

// keywordLexicon maps an expense category name to the substrings that select
// it. Keywords are matched against lowercased transaction descriptions;
// longer keywords outrank shorter ones when several match.
var keywordLexicon = map[string][]string{
	"餐饮": {
		"餐厅", "饭店", "餐馆", "食堂", "外卖", "小吃", "火锅", "烧烤", "快餐",
		"早餐", "午餐", "晚餐", "饮品", "咖啡", "奶茶", "酒吧", "麦当劳", "肯德基",
		"必胜客", "星巴克", "汉堡王", "海底捞", "煲仔饭", "炒饭", "拉面", "米线",
		"螺蛳粉", "饺子", "包子", "馄饨", "蛋糕", "面包", "冰淇淋", "美团", "披萨",
		"黄焖鸡", "炸鸡", "烤鱼", "麻辣烫", "餐饮", "食品",
	},
	"交通": {
		"地铁", "公交", "出租车", "打车", "滴滴", "网约车", "共享单车", "单车",
		"火车", "高铁", "动车", "飞机", "机票", "航空", "航班", "油费", "加油",
		"加油站", "中石化", "中石油", "停车", "停车费", "过路费", "高速", "ETC",
		"车票", "船票", "租车", "洗车", "交通", "出行", "通勤",
	},
	"购物": {
		"超市", "商场", "商店", "便利店", "淘宝", "京东", "拼多多", "网购", "电商",
		"服装", "鞋子", "化妆品", "护肤品", "电子产品", "数码", "电器", "家具",
		"家居", "饰品", "首饰", "珠宝", "手表", "眼镜", "箱包", "文具", "玩具",
		"礼品", "礼物", "鲜花", "购物",
	},
	"教育": {
		"学校", "学费", "书本", "教材", "培训", "课程", "辅导班", "补习班",
		"兴趣班", "考试", "考证", "留学", "幼儿园", "大学", "书店", "图书馆",
		"教育", "学习",
	},
	"娱乐": {
		"电影", "游戏", "KTV", "影院", "电影院", "演出", "演唱会", "音乐会",
		"话剧", "体育", "健身", "游泳", "瑜伽", "网吧", "网咖", "桌游", "剧本杀",
		"密室逃脱", "酒吧", "台球", "保龄球", "娱乐", "电竞",
	},
	"医疗": {
		"医院", "药店", "药房", "医疗", "药品", "看病", "治疗", "体检", "医生",
		"诊所", "门诊", "急诊", "挂号", "中药", "西药", "保健品", "住院", "手术",
	},
	"住房": {
		"房租", "租金", "押金", "物业费", "装修", "家电", "房贷", "按揭", "中介费",
		"租房", "公寓", "住房", "水电费",
	},
	"生活缴费": {
		"水费", "电费", "燃气费", "煤气费", "暖气费", "宽带费", "网费", "电话费",
		"话费", "有线电视费", "收视费", "管理费", "维修费", "缴费", "交费", "账单",
	},
	"其他": {
		"其他", "杂项", "未分类",
	},
}

// categoryStyles maps well-known category names to their creation style.
// Income entries exist for categories created through the API or importers;
// keyword-derived categories are always expense-typed.
var categoryStyles = map[string]struct {
	Type  model.CategoryType
	Style Style
}{
	// Income categories
	"工资": {model.CategoryTypeIncome, Style{"💼", "#EF4444"}},
	"奖金": {model.CategoryTypeIncome, Style{"🏆", "#EF4444"}},
	"投资": {model.CategoryTypeIncome, Style{"📈", "#EF4444"}},
	"兼职": {model.CategoryTypeIncome, Style{"👔", "#EF4444"}},
	"礼金": {model.CategoryTypeIncome, Style{"🎁", "#EF4444"}},
	"退款": {model.CategoryTypeIncome, Style{"🔄", "#EF4444"}},
	"红包": {model.CategoryTypeIncome, Style{"🧧", "#EF4444"}},
	"理财": {model.CategoryTypeIncome, Style{"💹", "#EF4444"}},
	"股息": {model.CategoryTypeIncome, Style{"📊", "#EF4444"}},
	"利息": {model.CategoryTypeIncome, Style{"💰", "#EF4444"}},

	// Expense categories
	"餐饮":   {model.CategoryTypeExpense, Style{"🍜", "#10B981"}},
	"购物":   {model.CategoryTypeExpense, Style{"🛒", "#10B981"}},
	"交通":   {model.CategoryTypeExpense, Style{"🚗", "#10B981"}},
	"打车":   {model.CategoryTypeExpense, Style{"🚖", "#10B981"}},
	"加油":   {model.CategoryTypeExpense, Style{"⛽", "#10B981"}},
	"停车":   {model.CategoryTypeExpense, Style{"🅿️", "#10B981"}},
	"公共交通": {model.CategoryTypeExpense, Style{"🚌", "#10B981"}},
	"高铁":   {model.CategoryTypeExpense, Style{"🚄", "#10B981"}},
	"飞机":   {model.CategoryTypeExpense, Style{"✈️", "#10B981"}},
	"娱乐":   {model.CategoryTypeExpense, Style{"🎮", "#10B981"}},
	"电影":   {model.CategoryTypeExpense, Style{"🎬", "#10B981"}},
	"游戏":   {model.CategoryTypeExpense, Style{"🎯", "#10B981"}},
	"医疗":   {model.CategoryTypeExpense, Style{"🏥", "#10B981"}},
	"药品":   {model.CategoryTypeExpense, Style{"💊", "#10B981"}},
	"教育":   {model.CategoryTypeExpense, Style{"📚", "#10B981"}},
	"学费":   {model.CategoryTypeExpense, Style{"🎓", "#10B981"}},
	"书籍":   {model.CategoryTypeExpense, Style{"📖", "#10B981"}},
	"住房":   {model.CategoryTypeExpense, Style{"🏠", "#10B981"}},
	"房租":   {model.CategoryTypeExpense, Style{"🏡", "#10B981"}},
	"水电":   {model.CategoryTypeExpense, Style{"💧", "#10B981"}},
	"通讯":   {model.CategoryTypeExpense, Style{"📱", "#10B981"}},
	"手机":   {model.CategoryTypeExpense, Style{"📞", "#10B981"}},
	"网络":   {model.CategoryTypeExpense, Style{"🌐", "#10B981"}},
	"旅行":   {model.CategoryTypeExpense, Style{"🧳", "#10B981"}},
	"酒店":   {model.CategoryTypeExpense, Style{"🏨", "#10B981"}},
	"门票":   {model.CategoryTypeExpense, Style{"🎫", "#10B981"}},
	"健身":   {model.CategoryTypeExpense, Style{"💪", "#10B981"}},
	"美容":   {model.CategoryTypeExpense, Style{"💄", "#10B981"}},
	"服饰":   {model.CategoryTypeExpense, Style{"👕", "#10B981"}},
	"数码":   {model.CategoryTypeExpense, Style{"💻", "#10B981"}},
	"家居":   {model.CategoryTypeExpense, Style{"🏠", "#10B981"}},
}

// StyleFor returns the creation style for a category name, consulting the
// style table first and falling back to the per-type default.
func StyleFor(name string, categoryType model.CategoryType) Style {
	if entry, ok := categoryStyles[name]; ok && entry.Type == categoryType {
		return entry.Style
	}
	switch name {
	case OtherIncomeName:
		return defaultIncomeStyle
	case OtherExpenseName:
		return defaultExpenseStyle
	}
	return defaultStyle
}
