package transport

import (
	"Hermes/internal/client/config"
	"Hermes/internal/dto"
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Client HR 套件聊天接口的 REST 访问封装
type Client struct {
	http     *resty.Client
	pageSize int
}

func NewClient(cfg *config.ServerConfig, token string) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.Timeout) * time.Second).
		SetAuthToken(token).
		SetHeader("Accept", "application/json")

	return &Client{http: c, pageSize: cfg.PageSize}
}

// GetConversations 拉取当前用户的会话列表
func (s *Client) GetConversations(ctx context.Context) ([]*dto.ConversationEnvelope, error) {
	resp, err := s.http.R().SetContext(ctx).Get("/api/chat/conversations")
	if err != nil {
		return nil, errors.Wrap(err, "请求会话列表")
	}
	var list []*dto.ConversationEnvelope
	if err := unwrap(resp, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetMessages 拉取某会话的历史消息（服务端分页，取最近一页）
func (s *Client) GetMessages(ctx context.Context, convID string) ([]*dto.MessageEnvelope, error) {
	resp, err := s.http.R().SetContext(ctx).
		SetQueryParam("conversationId", convID).
		SetQueryParam("pageSize", strconv.Itoa(s.pageSize)).
		Get("/api/chat/messages")
	if err != nil {
		return nil, errors.Wrap(err, "请求历史消息")
	}
	var list []*dto.MessageEnvelope
	if err := unwrap(resp, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SendMessage 发送消息：multipart 表单，文本字段 + 附件文件 + 关联 ID
func (s *Client) SendMessage(ctx context.Context, req *dto.SendMessageReq) (*dto.MessageEnvelope, error) {
	r := s.http.R().SetContext(ctx).
		SetFormData(map[string]string{
			"conversationId": req.ConversationID,
			"text":           req.Text,
			"correlationId":  req.CorrelationID,
		})
	for _, a := range req.Attachments {
		r.SetFileReader("files", a.FileName, bytes.NewReader(a.Data))
	}

	resp, err := r.Post("/api/chat/messages")
	if err != nil {
		return nil, errors.Wrap(err, "发送消息请求")
	}
	var env dto.MessageEnvelope
	if err := unwrap(resp, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// CreateDirect 创建（或复用）单聊会话，返回会话 ID
func (s *Client) CreateDirect(ctx context.Context, targetUserID string) (string, error) {
	resp, err := s.http.R().SetContext(ctx).
		SetBody(&dto.CreateDirectReq{TargetUserID: targetUserID}).
		Post("/api/chat/conversations/direct")
	if err != nil {
		return "", errors.Wrap(err, "创建单聊请求")
	}
	var out dto.CreateConversationResp
	if err := unwrap(resp, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// CreateGroup 创建群聊会话，返回会话 ID
func (s *Client) CreateGroup(ctx context.Context, title string, memberIDs []string) (string, error) {
	resp, err := s.http.R().SetContext(ctx).
		SetBody(&dto.CreateGroupReq{Title: title, MemberIDs: memberIDs}).
		Post("/api/chat/conversations/group")
	if err != nil {
		return "", errors.Wrap(err, "创建群聊请求")
	}
	var out dto.CreateConversationResp
	if err := unwrap(resp, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// unwrap 解析统一响应包装，业务码非 200 视为错误
func unwrap(resp *resty.Response, out interface{}) error {
	if resp.IsError() {
		return errors.Errorf("HTTP %d: %s", resp.StatusCode(), resp.Status())
	}
	var body dto.Response
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return errors.Wrap(err, "解析响应包装")
	}
	if body.Code != 200 {
		return errors.Errorf("业务错误 %d: %s", body.Code, body.Message)
	}
	if out == nil || len(body.Data) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(body.Data, out), "解析响应数据")
}
