package slack

import (
	"fmt"
	"strings"
)

type CommandType string

const (
	CmdRegister   CommandType = "register"
	CmdUnregister CommandType = "unregister"
	CmdEnable     CommandType = "enable"
	CmdDisable    CommandType = "disable"
	CmdToday      CommandType = "today"
	CmdJobs       CommandType = "jobs"
	CmdStart      CommandType = "start"
	CmdStop       CommandType = "stop"
	CmdTrigger    CommandType = "trigger"
	CmdFeedback   CommandType = "feedback"
	CmdHelp       CommandType = "help"
)

// aliases maps the short command words users already know to commands.
var aliases = map[string]CommandType{
	"注册订阅": CmdRegister,
	"注销订阅": CmdUnregister,
	"off":  CmdDisable,
	"课程":   CmdToday,
	"查看任务": CmdJobs,
	"开启定时": CmdStart,
	"关闭定时": CmdStop,
	"ce":   CmdTrigger,
	"反馈":   CmdFeedback,
	"帮助":   CmdHelp,
}

type Command struct {
	Type CommandType
	Args []string
	Raw  string
}

// TextMode reports whether `today` asked for a plain text reply.
func (c *Command) TextMode() bool {
	return c.Type == CmdToday && len(c.Args) > 0 && (c.Args[0] == "text" || c.Args[0] == "文本")
}

func ParseCommand(text string) (*Command, error) {
	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) == 0 {
		return &Command{Type: CmdHelp}, nil
	}

	cmd := &Command{
		Raw: text,
	}

	name := strings.ToLower(parts[0])
	if alias, ok := aliases[parts[0]]; ok {
		name = string(alias)
	}

	switch CommandType(name) {
	case CmdRegister:
		if len(parts) != 3 {
			return nil, fmt.Errorf("usage: /course register <account> <password>")
		}
		cmd.Type = CmdRegister
		cmd.Args = parts[1:]
	case CmdUnregister:
		cmd.Type = CmdUnregister
	case CmdEnable:
		cmd.Type = CmdEnable
	case CmdDisable:
		cmd.Type = CmdDisable
	case CmdToday:
		cmd.Type = CmdToday
		if len(parts) > 1 {
			cmd.Args = parts[1:]
		}
	case CmdJobs:
		cmd.Type = CmdJobs
	case CmdStart:
		cmd.Type = CmdStart
	case CmdStop:
		cmd.Type = CmdStop
	case CmdTrigger:
		cmd.Type = CmdTrigger
	case CmdFeedback:
		if len(parts) < 2 {
			return nil, fmt.Errorf("usage: /course feedback <text>")
		}
		cmd.Type = CmdFeedback
		cmd.Args = []string{strings.Join(parts[1:], " ")}
	case CmdHelp:
		cmd.Type = CmdHelp
	default:
		return nil, fmt.Errorf("unknown command: %s", parts[0])
	}

	return cmd, nil
}

func GetHelpText() string {
	return `*课程提醒命令:*

*订阅:*
• ` + "`/course register <学号> <密码>`" + ` - 注册每日课程提醒, 再次注册会覆盖原有信息
• ` + "`/course unregister`" + ` - 注销每日课程提醒
• ` + "`/course enable`" + ` - 开启自己的每日推送
• ` + "`/course disable`" + ` - 关闭自己的每日推送

*课表:*
• ` + "`/course today`" + ` - 获取今日课表图片
• ` + "`/course today text`" + ` - 以文字形式获取今日课表

*定时任务:*
• ` + "`/course jobs`" + ` - 查看当前任务
• ` + "`/course start`" + ` - 开启定时任务
• ` + "`/course stop`" + ` - 关闭定时任务, 同时清除待发送的提醒
• ` + "`/course trigger`" + ` - 立即执行一次每日推送

*其它:*
• ` + "`/course feedback <内容>`" + ` - 提交反馈`
}
