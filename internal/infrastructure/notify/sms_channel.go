package notify

import (
	"encoding/json"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi20170525 "github.com/alibabacloud-go/dysmsapi-20170525/v4/client"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	"go.uber.org/zap"

	"stelle_world_server/internal/config"
	"stelle_world_server/pkg/errorx"
)

// smsChannel 短信通知渠道（阿里云 SMS）
// 通过固定模板下发通知内容，模板变量名为 content
type smsChannel struct {
	client       *dysmsapi20170525.Client
	signName     string
	templateCode string
}

// NewSmsChannel 创建短信渠道
// AccessKey 未配置或客户端初始化失败时返回 nil，表示该渠道关闭
func NewSmsChannel(cfg config.SmsConfig) Channel {
	if cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" {
		return nil
	}

	conf := &openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
	}
	conf.Endpoint = tea.String("dysmsapi.aliyuncs.com")
	client, err := dysmsapi20170525.NewClient(conf)
	if err != nil {
		zap.L().Error("Aliyun SMS Client Init Failed", zap.Error(err))
		return nil
	}

	return &smsChannel{
		client:       client,
		signName:     cfg.SignName,
		templateCode: cfg.TemplateCode,
	}
}

func (s *smsChannel) Name() string { return "sms" }

// Send 下发模板短信
func (s *smsChannel) Send(recipient string, message string) error {
	param, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return errorx.Wrap(err, errorx.CodeNotifyError, "短信模板参数序列化失败")
	}

	req := &dysmsapi20170525.SendSmsRequest{
		PhoneNumbers:  tea.String(recipient),
		SignName:      tea.String(s.signName),
		TemplateCode:  tea.String(s.templateCode),
		TemplateParam: tea.String(string(param)),
	}

	resp, err := s.client.SendSmsWithOptions(req, &util.RuntimeOptions{})
	if err != nil {
		return errorx.Wrap(err, errorx.CodeNotifyError, "短信发送请求失败")
	}
	if resp.Body == nil {
		return errorx.New(errorx.CodeNotifyError, "短信发送失败: 空响应")
	}
	if tea.StringValue(resp.Body.Code) != "OK" {
		return errorx.Newf(errorx.CodeNotifyError, "短信发送失败: %s",
			tea.StringValue(resp.Body.Message))
	}
	return nil
}
