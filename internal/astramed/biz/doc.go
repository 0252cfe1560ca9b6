// Package biz 提供 AstraMed 问答服务的业务逻辑层。
//
// 该包将问答流水线拆分为以下组件：
//   - Retriever: 向量检索、排序、截断（至多 3 条）与阈值过滤
//   - Router: 通用/医疗二分路由，策略可插拔（关键词、向量、大模型）
//   - Synthesizer: 合并候选答案或生成通用回复，每次恰好一次模型调用
//   - Parse: 对外部模型输出做分层解析
//   - Locale: 语言解析与免责声明
//   - Service: 组合以上组件，提供统一的服务接口
package biz
