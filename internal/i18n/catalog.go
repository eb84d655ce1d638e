package i18n

// Message keys shared by the email templates and error rendering
const (
	KeyMale                = "male"
	KeyFemale              = "female"
	KeyResponseEmailTitle  = "responseEmail.title"
	KeyResponseEmailNotice = "responseEmail.notice"
	KeyResponseEmailWarn   = "responseEmail.warning"
	KeyOriginalPost        = "originalPost"
	KeyUnknownLocation     = "unknownLocation"
	errorKeyPrefix         = "error."
)

var catalog = map[string]map[string]string{
	"zh": {
		KeyMale:                "男",
		KeyFemale:              "女",
		KeyResponseEmailTitle:  "灵犀角: 你收到了一条新的回复",
		KeyResponseEmailNotice: "{{email}} ({{gender}}, {{age}}岁, {{location}}) 回复了你的帖子。",
		KeyResponseEmailWarn:   "请注意保护个人隐私，谨慎透露个人信息。",
		KeyOriginalPost:        "原帖",
		KeyUnknownLocation:     "未知地点",

		"error.exceed_post_creation_limit":             "{{day}}天内最多发布{{count}}条帖子",
		"error.exceed_response_limit":                  "{{day}}天内最多回复{{count}}条帖子",
		"error.error_parsing_request":                  "无法解析请求",
		"error.invalid_email":                          "邮箱格式不正确",
		"error.post_responded":                         "你已经回复过这条帖子了",
		"error.invalid_age":                            "年龄格式不正确",
		"error.exceed_max_location_characters_number":  "地点不能超过{{max}}个字",
		"error.exceed_max_narration_characters_number": "描述不能超过{{max}}个字",
		"error.exceed_max_question_characters_number":  "问题不能超过{{max}}个字",
		"error.exceed_max_answer_characters_number":    "回答不能超过{{max}}个字",
		"error.empty_narration":                        "描述不能为空",
		"error.unexpected_server_error":                "服务器出错了，请稍后再试",
	},
	"en": {
		KeyMale:                "male",
		KeyFemale:              "female",
		KeyResponseEmailTitle:  "Lingxijiao: you have a new reply",
		KeyResponseEmailNotice: "{{email}} ({{gender}}, {{age}}, {{location}}) replied to your post.",
		KeyResponseEmailWarn:   "Protect your privacy and be careful when sharing personal information.",
		KeyOriginalPost:        "Original post",
		KeyUnknownLocation:     "unknown location",

		"error.exceed_post_creation_limit":             "You can create at most {{count}} posts in {{day}} days",
		"error.exceed_response_limit":                  "You can reply to at most {{count}} posts in {{day}} days",
		"error.error_parsing_request":                  "The request could not be parsed",
		"error.invalid_email":                          "Invalid email address",
		"error.post_responded":                         "You have already replied to this post",
		"error.invalid_age":                            "Invalid age",
		"error.exceed_max_location_characters_number":  "Location must be at most {{max}} characters",
		"error.exceed_max_narration_characters_number": "Narration must be at most {{max}} characters",
		"error.exceed_max_question_characters_number":  "Question must be at most {{max}} characters",
		"error.exceed_max_answer_characters_number":    "Answer must be at most {{max}} characters",
		"error.empty_narration":                        "Narration must not be empty",
		"error.unexpected_server_error":                "Something went wrong, please try again later",
	},
}
