package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/domain"
	"github.com/diegoclair/course-reminder-bot/internal/domain/contract"
	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
	slackcmd "github.com/diegoclair/course-reminder-bot/internal/domain/slack"
	"github.com/diegoclair/course-reminder-bot/internal/timetable"
	apperrors "github.com/diegoclair/course-reminder-bot/pkg/errors"
)

const (
	platformName = "slack"
	asyncTimeout = 5 * time.Minute
	replyTimeout = 30 * time.Second
)

type SlackHandler struct {
	subscribers   contract.SubscriberService
	feedback      contract.FeedbackService
	timetable     contract.TimetableService
	scheduler     contract.ReminderScheduler
	broadcast     contract.BroadcastService
	messenger     contract.Messenger
	signingSecret string
	location      *time.Location
	logger        *zap.Logger
	wg            sync.WaitGroup
}

func New(
	subscribers contract.SubscriberService,
	feedback contract.FeedbackService,
	timetableSvc contract.TimetableService,
	scheduler contract.ReminderScheduler,
	broadcast contract.BroadcastService,
	messenger contract.Messenger,
	signingSecret string,
	location *time.Location,
	logger *zap.Logger,
) *SlackHandler {
	if location == nil {
		location = time.Local
	}
	return &SlackHandler{
		subscribers:   subscribers,
		feedback:      feedback,
		timetable:     timetableSvc,
		scheduler:     scheduler,
		broadcast:     broadcast,
		messenger:     messenger,
		signingSecret: signingSecret,
		location:      location,
		logger:        logger,
	}
}

// Wait blocks until background work started by commands has finished.
func (h *SlackHandler) Wait() {
	h.wg.Wait()
}

func (h *SlackHandler) HandleSlashCommand(w http.ResponseWriter, r *http.Request) {
	// Verify request from Slack
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	verifier, err := slack.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if _, err := verifier.Write(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := verifier.Ensure(); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	s, err := slack.SlashCommandParse(r)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	cmd, err := slackcmd.ParseCommand(s.Text)
	if err != nil {
		h.respondWithError(w, err.Error())
		return
	}

	h.logger.Info("slash command received",
		zap.String("command", string(cmd.Type)),
		zap.String("user_id", s.UserID),
		zap.String("channel_id", s.ChannelID))

	response := h.handleCommand(cmd, &s)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to write slash command response", zap.Error(err))
	}
}

func (h *SlackHandler) handleCommand(cmd *slackcmd.Command, slashCmd *slack.SlashCommand) *slack.Msg {
	switch cmd.Type {
	case slackcmd.CmdRegister:
		return h.handleRegister(cmd, slashCmd)
	case slackcmd.CmdUnregister:
		return h.handleUnregister(slashCmd)
	case slackcmd.CmdEnable:
		return h.handleToggle(slashCmd, true)
	case slackcmd.CmdDisable:
		return h.handleToggle(slashCmd, false)
	case slackcmd.CmdToday:
		return h.handleToday(cmd, slashCmd)
	case slackcmd.CmdJobs:
		return h.handleJobs()
	case slackcmd.CmdStart:
		return h.handleStart()
	case slackcmd.CmdStop:
		return h.handleStop()
	case slackcmd.CmdTrigger:
		return h.handleTrigger(slashCmd)
	case slackcmd.CmdFeedback:
		return h.handleFeedback(cmd, slashCmd)
	case slackcmd.CmdHelp:
		return h.handleHelp()
	default:
		return h.createErrorResponse("无法识别的命令")
	}
}

func (h *SlackHandler) handleRegister(cmd *slackcmd.Command, slashCmd *slack.SlashCommand) *slack.Msg {
	account, secret := cmd.Args[0], cmd.Args[1]

	// The user id routes deliveries to the bot's direct message with the user,
	// which stays reachable whatever channel the command was typed in.
	replaced, err := h.subscribers.Register(slashCmd.UserID, entity.PlatformFromName(platformName), slashCmd.UserID, account, secret)
	if err != nil {
		h.logger.Error("register failed", zap.String("user_id", slashCmd.UserID), zap.Error(err))
		return h.createErrorResponse("注册失败，请稍后再试")
	}

	if replaced {
		return h.reply("已重建用户信息。")
	}
	return h.reply("已注册每日课程提醒！")
}

func (h *SlackHandler) handleUnregister(slashCmd *slack.SlashCommand) *slack.Msg {
	removed, err := h.subscribers.Unregister(slashCmd.UserID)
	if err != nil {
		h.logger.Error("unregister failed", zap.String("user_id", slashCmd.UserID), zap.Error(err))
		return h.createErrorResponse("注销失败，请稍后再试")
	}

	if !removed {
		return h.reply("每日课程提醒未注册，无需关闭。")
	}
	h.scheduler.CancelUser(slashCmd.UserID)
	return h.reply("已注销每日课程提醒！")
}

func (h *SlackHandler) handleToggle(slashCmd *slack.SlashCommand, enable bool) *slack.Msg {
	var err error
	if enable {
		err = h.subscribers.Enable(slashCmd.UserID)
	} else {
		err = h.subscribers.Disable(slashCmd.UserID)
	}

	switch {
	case errors.Is(err, apperrors.ErrNotRegistered):
		return h.reply("未注册用户")
	case err != nil:
		h.logger.Error("toggle failed", zap.String("user_id", slashCmd.UserID), zap.Error(err))
		return h.createErrorResponse("操作失败，请稍后再试")
	case enable:
		return h.reply("已开启")
	default:
		h.scheduler.CancelUser(slashCmd.UserID)
		return h.reply("已关闭")
	}
}

func (h *SlackHandler) handleToday(cmd *slackcmd.Command, slashCmd *slack.SlashCommand) *slack.Msg {
	if _, err := h.subscribers.Get(slashCmd.UserID); err != nil {
		if errors.Is(err, apperrors.ErrNotRegistered) {
			return h.reply("您尚未注册订阅，请先执行 `/course register <学号> <密码>` 命令。")
		}
		return h.createErrorResponse("查询失败，请稍后再试")
	}

	userID, textMode := slashCmd.UserID, cmd.TextMode()
	h.async(func(ctx context.Context) {
		h.deliverToday(ctx, userID, textMode)
	})

	return h.reply("正在获取今日课表，请稍候...")
}

func (h *SlackHandler) deliverToday(ctx context.Context, userID string, textMode bool) {
	logger := h.logger.With(zap.String("user_id", userID))

	today, err := h.timetable.Today(ctx, userID)
	if err != nil {
		logger.Error("failed to fetch timetable", zap.Error(err))
		h.send(ctx, userID, "获取课表失败: "+failureReason(err))
		return
	}

	if textMode {
		h.send(ctx, userID, timetable.FormatText(today.Week, domain.WeekdayLabels[today.Weekday], today.Courses))
		return
	}

	if len(today.Courses) == 0 {
		h.send(ctx, userID, "未获取到课程信息")
		return
	}

	artifact, err := h.timetable.Render(ctx, today)
	if err != nil {
		logger.Error("failed to render timetable", zap.Error(err))
		h.send(ctx, userID, "生成课表图片失败，请使用 `/course today text`")
		return
	}

	if err := h.messenger.SendImage(ctx, userID, artifact); err != nil {
		logger.Error("failed to upload timetable", zap.Error(err))
	}
}

func (h *SlackHandler) handleJobs() *slack.Msg {
	var sb strings.Builder

	if next, ok := h.scheduler.NextDaily(); ok {
		sb.WriteString(fmt.Sprintf("任务ID：%s 下次运行时间：%s\n", domain.DailyBroadcastJobID, h.formatTime(next)))
	}
	for _, job := range h.scheduler.List() {
		sb.WriteString(fmt.Sprintf("任务ID：%s 下次运行时间：%s\n", job.ID, h.formatTime(job.FireAt)))
	}

	if sb.Len() == 0 {
		return h.reply("当前没有任务")
	}
	return h.reply(strings.TrimRight(sb.String(), "\n"))
}

func (h *SlackHandler) handleStart() *slack.Msg {
	if err := h.scheduler.Start(); err != nil {
		h.logger.Error("failed to start scheduler", zap.Error(err))
		return h.createErrorResponse("定时任务启动失败")
	}
	return h.reply("定时任务已启动")
}

func (h *SlackHandler) handleStop() *slack.Msg {
	h.scheduler.Stop()
	return h.reply("定时任务已停止")
}

func (h *SlackHandler) handleTrigger(slashCmd *slack.SlashCommand) *slack.Msg {
	target := slashCmd.UserID
	h.async(func(ctx context.Context) {
		report, err := h.broadcast.Run(ctx)

		// The run may outlast ctx; the summary gets its own deadline.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
		defer cancel()

		if err != nil {
			h.logger.Error("manual broadcast failed", zap.Error(err))
			h.send(ctx, target, "每日推送执行失败")
			return
		}
		h.send(ctx, target, fmt.Sprintf("每日推送完成: 成功 %d, 无课 %d, 失败 %d, 提醒 %d",
			report.Succeeded, report.Empty, report.Failed, report.JobsScheduled))
	})

	return h.reply("已开始执行每日推送")
}

func (h *SlackHandler) handleFeedback(cmd *slackcmd.Command, slashCmd *slack.SlashCommand) *slack.Msg {
	if err := h.feedback.Submit(slashCmd.UserID, cmd.Args[0]); err != nil {
		h.logger.Error("feedback failed", zap.String("user_id", slashCmd.UserID), zap.Error(err))
		return h.createErrorResponse("反馈提交失败，请稍后再试！")
	}
	return h.reply("感谢您的反馈！")
}

func (h *SlackHandler) handleHelp() *slack.Msg {
	return h.reply(slackcmd.GetHelpText())
}

func (h *SlackHandler) async(fn func(ctx context.Context)) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (h *SlackHandler) send(ctx context.Context, target, text string) {
	if err := h.messenger.SendText(ctx, target, text); err != nil {
		h.logger.Error("failed to send reply", zap.String("target", target), zap.Error(err))
	}
}

func (h *SlackHandler) formatTime(t time.Time) string {
	return t.In(h.location).Format("2006-01-02 15:04:05")
}

func failureReason(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrAuth.Code:
		return "登录教务系统失败，请检查学号和密码"
	case apperrors.ErrFetch.Code:
		return "教务系统暂时无法访问"
	case apperrors.ErrNotRegistered.Code:
		return "未注册用户"
	default:
		return "未知错误"
	}
}

func (h *SlackHandler) reply(text string) *slack.Msg {
	return &slack.Msg{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         text,
	}
}

func (h *SlackHandler) createErrorResponse(message string) *slack.Msg {
	return &slack.Msg{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         fmt.Sprintf("❌ %s", message),
	}
}

func (h *SlackHandler) respondWithError(w http.ResponseWriter, message string) {
	response := h.createErrorResponse(message)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to write error response", zap.Error(err))
	}
}
